package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := State("relationship is %s", "ended")
	assert.Equal(t, KindState, KindOf(err))
	assert.Equal(t, "relationship is ended", err.Error())

	wrapped := fmt.Errorf("saving failed: %w", Conflict("duplicate"))
	assert.Equal(t, KindConflict, KindOf(wrapped))

	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestStatusRoundTrip(t *testing.T) {
	kinds := []Kind{KindValidation, KindPermission, KindState, KindNotFound, KindConflict}
	for _, kind := range kinds {
		require.Equal(t, kind, KindFromStatus(HTTPStatus(kind)), "kind %s must survive the wire", kind)
	}

	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(KindInternal))
	assert.Equal(t, KindInternal, KindFromStatus(http.StatusBadGateway))
}
