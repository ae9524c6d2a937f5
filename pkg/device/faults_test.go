package device

import (
	"testing"

	"github.com/aretw0/cutline/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestLineFaults(t *testing.T) {
	assert.NoError(t, StatusFaults([]byte("ok\nok\n")))
	assert.NoError(t, StatusFaults(nil))

	err := StatusFaults([]byte("ok\r\nerror:20\r\n"))
	assert.ErrorIs(t, err, domain.ErrProtocolViolation)
	assert.Contains(t, err.Error(), "error:20")

	custom := LineFaults("E")
	assert.Error(t, custom([]byte("e05")))
}
