package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"notesort/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileError(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := errors.NewFileError("cannot read note", "/vault/note.md", errors.FileAccessDenied, cause)

	assert.Equal(t, "cannot read note: /vault/note.md: permission denied", err.Error())
	assert.Equal(t, "/vault/note.md", err.Path())
	assert.Equal(t, errors.FileAccessDenied, err.Kind())
	assert.ErrorIs(t, err, cause)

	t.Run("without path or cause", func(t *testing.T) {
		bare := errors.NewFileError("move failed", "", errors.MoveFailed, nil)
		assert.Equal(t, "move failed", bare.Error())
		assert.Nil(t, errors.Unwrap(bare))
	})

	t.Run("as recovers the typed error", func(t *testing.T) {
		wrapped := fmt.Errorf("outer: %w", err)
		var fe *errors.FileError
		require.True(t, errors.As(wrapped, &fe))
		assert.Equal(t, "/vault/note.md", fe.Path())
	})
}

func TestConfigError(t *testing.T) {
	err := errors.NewConfigError("invalid value", "debounce_ms", errors.InvalidConfig, nil)
	assert.Contains(t, err.Error(), "debounce_ms")
	assert.Equal(t, "debounce_ms", err.Param())
	assert.Equal(t, errors.InvalidConfig, err.Kind())
}

func TestRuleError(t *testing.T) {
	err := errors.NewRuleError("bad pattern", "journal", errors.InvalidPattern, nil)
	assert.Contains(t, err.Error(), "journal")
	assert.Equal(t, "journal", err.RuleName())
	assert.Equal(t, errors.InvalidPattern, err.Kind())
}

func TestParseError(t *testing.T) {
	err := errors.NewParseError("not a mapping", "note.md", errors.NotAMapping, nil)
	assert.Contains(t, err.Error(), "note.md")
	assert.Equal(t, "note.md", err.Document())
	assert.Equal(t, errors.NotAMapping, err.Kind())
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("disk full")

	t.Run("wrap adds context", func(t *testing.T) {
		err := errors.Wrap(cause, "saving config")
		assert.Equal(t, "saving config: disk full", err.Error())
		assert.ErrorIs(t, err, cause)
	})

	t.Run("wrapf formats", func(t *testing.T) {
		err := errors.Wrapf(cause, "saving %s", "config.yaml")
		assert.Equal(t, "saving config.yaml: disk full", err.Error())
	})

	t.Run("wrapping nil yields nil", func(t *testing.T) {
		assert.Nil(t, errors.Wrap(nil, "context"))
		assert.Nil(t, errors.Wrapf(nil, "context %d", 1))
	})

	t.Run("new and newf", func(t *testing.T) {
		assert.Equal(t, "plain", errors.New("plain").Error())
		assert.Equal(t, "count 3", errors.Newf("count %d", 3).Error())
	})
}

func TestKindPredicates(t *testing.T) {
	notFound := errors.NewFileError("gone", "a.md", errors.FileNotFound, nil)
	missing := errors.NewFileError("no folder", "Journal", errors.FolderMissing, nil)
	badCfg := errors.NewConfigError("bad", "rules", errors.InvalidConfig, nil)
	badRule := errors.NewRuleError("bad", "r1", errors.InvalidRule, nil)
	parse := errors.NewParseError("bad block", "n.md", errors.ParseFailed, nil)

	assert.True(t, errors.IsFileNotFound(notFound))
	assert.False(t, errors.IsFileNotFound(missing))

	assert.True(t, errors.IsFolderMissing(missing))
	assert.False(t, errors.IsFolderMissing(notFound))

	assert.True(t, errors.IsInvalidConfig(badCfg))
	assert.True(t, errors.IsInvalidRule(badRule))
	assert.True(t, errors.IsParseError(parse))

	t.Run("predicates see through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("while filing: %w", missing)
		assert.True(t, errors.IsFolderMissing(wrapped))
	})

	t.Run("plain errors match nothing", func(t *testing.T) {
		plain := stderrors.New("whatever")
		assert.False(t, errors.IsFileNotFound(plain))
		assert.False(t, errors.IsFolderMissing(plain))
		assert.False(t, errors.IsInvalidConfig(plain))
		assert.False(t, errors.IsInvalidRule(plain))
		assert.False(t, errors.IsParseError(plain))
	})
}
