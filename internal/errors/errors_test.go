package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"foreign", errors.New("boom"), KindUnknown},
		{"validation", Validation("create", "bad url %q", "x"), KindValidation},
		{"not found", NotFound("resolve", "no code"), KindNotFound},
		{"access denied", AccessDenied("delete", "not yours"), KindAccessDenied},
		{"expired", Expired("resolve", "gone"), KindExpired},
		{"quota", QuotaExceeded("resolve", "used up"), KindQuotaExceeded},
		{"state", CorruptState("create", "quota 0"), KindState},
		{"persistence", Persistence("save", errors.New("disk full")), KindPersistence},
		{"wrapped", fmt.Errorf("handler: %w", Expired("resolve", "gone")), KindExpired},
		{"bare sentinel", ErrNotFound, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorMatchesSentinel(t *testing.T) {
	err := QuotaExceeded("resolve", "link %s deactivated", "abc123")

	assert.ErrorIs(t, err, ErrQuotaExceeded)
	assert.NotErrorIs(t, err, ErrExpired)
	assert.Equal(t, "resolve: link abc123 deactivated", err.Error())
}

func TestPersistenceKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Persistence("sweep", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, "sweep: persistence failure: disk full", err.Error())
	assert.Same(t, err, Persistence("outer", err))
	assert.Nil(t, Persistence("noop", nil))
}
