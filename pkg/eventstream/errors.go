package eventstream

import "errors"

// ErrNilAttackEvent indicates a nil event was passed to a publisher.
var ErrNilAttackEvent = errors.New("nil attack event")
