// Package migrate holds the ent table definitions for the attack log store
// and runs ent's auto-migration against them.
package migrate

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Column names of the attack_logs table.
const (
	AttackLogsTableName = "attack_logs"

	FieldID             = "id"
	FieldTimestamp      = "timestamp"
	FieldIPAddress      = "ip_address"
	FieldRequestMethod  = "request_method"
	FieldEndpoint       = "endpoint"
	FieldPayloadData    = "payload_data"
	FieldAIResponseSent = "ai_response_sent"
	FieldUserAgent      = "user_agent"
	FieldOutcome        = "outcome"
)

// Columns lists every attack_logs column in storage order.
var Columns = []string{
	FieldID,
	FieldTimestamp,
	FieldIPAddress,
	FieldRequestMethod,
	FieldEndpoint,
	FieldPayloadData,
	FieldAIResponseSent,
	FieldUserAgent,
	FieldOutcome,
}

var (
	// AttackLogsColumns holds the columns for the "attack_logs" table.
	AttackLogsColumns = []*schema.Column{
		{Name: FieldID, Type: field.TypeString, Unique: true, Size: 36},
		{Name: FieldTimestamp, Type: field.TypeTime},
		{Name: FieldIPAddress, Type: field.TypeString, Size: 45, Default: ""},
		{Name: FieldRequestMethod, Type: field.TypeString, Size: 10, Default: ""},
		{Name: FieldEndpoint, Type: field.TypeString, Size: 500, Default: ""},
		{Name: FieldPayloadData, Type: field.TypeString, Size: 2147483647, Nullable: true},
		{Name: FieldAIResponseSent, Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: FieldUserAgent, Type: field.TypeString, Size: 500, Default: ""},
		{Name: FieldOutcome, Type: field.TypeString, Size: 32, Default: ""},
	}

	// AttackLogsTable holds the schema information for the "attack_logs" table.
	AttackLogsTable = &schema.Table{
		Name:       AttackLogsTableName,
		Columns:    AttackLogsColumns,
		PrimaryKey: []*schema.Column{AttackLogsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "attacklog_timestamp",
				Unique:  false,
				Columns: []*schema.Column{AttackLogsColumns[1]},
			},
			{
				Name:    "attacklog_endpoint",
				Unique:  false,
				Columns: []*schema.Column{AttackLogsColumns[4]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		AttackLogsTable,
	}
)

// Create runs ent's auto-migration for Tables on drv. Migration is append
// only: missing tables, columns and indexes are added, nothing is dropped.
func Create(ctx context.Context, drv dialect.Driver, opts ...schema.MigrateOption) error {
	m, err := schema.NewMigrate(drv, opts...)
	if err != nil {
		return fmt.Errorf("ent/migrate: %w", err)
	}
	return m.Create(ctx, Tables...)
}
