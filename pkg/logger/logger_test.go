package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger_BasicLevels(t *testing.T) {
	l := New("debug")
	assert.NotNil(t, l)
	l.Debug("dbg", "k", 1)
	l.Info("info")
	l.Warn("warn")
	l.Error("err")
}

func TestLogger_NopAndWith(t *testing.T) {
	l := With(NewNop(), "unit", "L1")
	assert.NotNil(t, l)
	l.Info("ignored", "k", "v")
}
