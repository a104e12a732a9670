package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsArrowMarkerSuffix(t *testing.T) {
	tests := []struct {
		name       string
		data       []byte
		wantMatch  bool
		wantRemove int
	}{
		{
			name:       "empty slice",
			data:       []byte{},
			wantMatch:  false,
			wantRemove: 1,
		},
		{
			name:       "single byte",
			data:       []byte{'a'},
			wantMatch:  false,
			wantRemove: 1,
		},
		{
			name:       "plain text",
			data:       []byte("abc"),
			wantMatch:  false,
			wantRemove: 1,
		},
		{
			name:       "up marker at end",
			data:       append([]byte("ab"), ArrowUpMarker...),
			wantMatch:  true,
			wantRemove: 2,
		},
		{
			name:       "down marker at end",
			data:       append([]byte("ab"), ArrowDownMarker...),
			wantMatch:  true,
			wantRemove: 2,
		},
		{
			name:       "left marker alone",
			data:       []byte(ArrowLeftMarker),
			wantMatch:  true,
			wantRemove: 2,
		},
		{
			name:       "right marker alone",
			data:       []byte(ArrowRightMarker),
			wantMatch:  true,
			wantRemove: 2,
		},
		{
			name:       "marker in the middle only",
			data:       append(append([]byte{}, ArrowUpMarker...), 'x'),
			wantMatch:  false,
			wantRemove: 1,
		},
		{
			name:       "null byte with unknown code",
			data:       []byte{'a', 0x00, 0x09},
			wantMatch:  false,
			wantRemove: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMatch, gotRemove := IsArrowMarkerSuffix(tt.data)
			assert.Equal(t, tt.wantMatch, gotMatch, "match result")
			assert.Equal(t, tt.wantRemove, gotRemove, "remove length")
		})
	}
}

func TestSecureBuffer_Backspace(t *testing.T) {
	t.Run("empty buffer", func(t *testing.T) {
		sb := NewSecureBuffer()
		defer sb.Destroy()
		assert.False(t, sb.Backspace())
		assert.Equal(t, 0, sb.Len())
	})

	t.Run("removes last rune", func(t *testing.T) {
		sb := NewSecureBuffer()
		defer sb.Destroy()
		sb.AppendRune('a')
		sb.AppendRune('b')

		require.True(t, sb.Backspace())
		assert.Equal(t, 1, sb.Len())
		assert.Equal(t, "a", string(sb.Bytes()))
	})

	t.Run("removes a multibyte rune whole", func(t *testing.T) {
		sb := NewSecureBuffer()
		defer sb.Destroy()
		sb.AppendRune('a')
		sb.AppendRune('я') // 2 bytes in UTF-8

		require.True(t, sb.Backspace())
		assert.Equal(t, "a", string(sb.Bytes()))
	})

	t.Run("removes a whole arrow marker", func(t *testing.T) {
		sb := NewSecureBuffer()
		defer sb.Destroy()
		sb.AppendRune('x')
		sb.AppendString(ArrowUpMarker)

		require.True(t, sb.Backspace())
		assert.Equal(t, 1, sb.Len())
		assert.Equal(t, "x", string(sb.Bytes()))
	})

	t.Run("mixed sequence unwinds in order", func(t *testing.T) {
		sb := NewSecureBuffer()
		defer sb.Destroy()
		sb.AppendRune('a')
		sb.AppendString(ArrowLeftMarker)
		sb.AppendRune('b')

		require.True(t, sb.Backspace()) // 'b'
		assert.Equal(t, 3, sb.Len())
		require.True(t, sb.Backspace()) // marker
		assert.Equal(t, 1, sb.Len())
		require.True(t, sb.Backspace()) // 'a'
		assert.Equal(t, 0, sb.Len())
		assert.False(t, sb.Backspace())
	})
}

func TestSecureBuffer_VisualLen(t *testing.T) {
	tests := []struct {
		name  string
		build func(sb *SecureBuffer)
		want  int
	}{
		{
			name:  "empty",
			build: func(sb *SecureBuffer) {},
			want:  0,
		},
		{
			name: "runes only",
			build: func(sb *SecureBuffer) {
				sb.AppendRune('a')
				sb.AppendRune('я')
				sb.AppendRune('ン')
			},
			want: 3,
		},
		{
			name: "arrows count as one each",
			build: func(sb *SecureBuffer) {
				sb.AppendString(ArrowUpMarker)
				sb.AppendString(ArrowDownMarker)
				sb.AppendString(ArrowLeftMarker)
				sb.AppendString(ArrowRightMarker)
			},
			want: 4,
		},
		{
			name: "mixed runes and arrows",
			build: func(sb *SecureBuffer) {
				sb.AppendRune('a')
				sb.AppendString(ArrowUpMarker)
				sb.AppendRune('b')
				sb.AppendString(ArrowRightMarker)
			},
			want: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := NewSecureBuffer()
			defer sb.Destroy()
			tt.build(sb)
			assert.Equal(t, tt.want, sb.VisualLen())
		})
	}
}

func TestSecureBuffer_Reset(t *testing.T) {
	sb := NewSecureBuffer()
	defer sb.Destroy()

	sb.AppendRune('s')
	sb.AppendString(ArrowUpMarker)
	require.NotZero(t, sb.Len())

	sb.Reset()
	assert.Equal(t, 0, sb.Len())

	// The buffer stays usable for the next attempt.
	sb.AppendRune('t')
	assert.Equal(t, "t", string(sb.Bytes()))
}

func TestVerify(t *testing.T) {
	hash, err := HashPassphrase([]byte("open sesame"))
	require.NoError(t, err)

	sb := NewSecureBuffer()
	defer sb.Destroy()
	for _, r := range "open sesame" {
		sb.AppendRune(r)
	}
	assert.True(t, sb.Verify(hash))

	sb.Backspace()
	assert.False(t, sb.Verify(hash), "a shortened attempt must not verify")

	sb.Reset()
	assert.False(t, sb.Verify(hash), "an empty attempt must not verify")
}

func TestVerifyWithArrows(t *testing.T) {
	want := []byte("up" + ArrowUpMarker + ArrowDownMarker)
	hash, err := HashPassphrase(want)
	require.NoError(t, err)

	sb := NewSecureBuffer()
	defer sb.Destroy()
	sb.AppendRune('u')
	sb.AppendRune('p')
	sb.AppendString(ArrowUpMarker)
	sb.AppendString(ArrowDownMarker)

	assert.True(t, sb.Verify(hash))
}
