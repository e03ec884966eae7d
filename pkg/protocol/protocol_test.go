package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_Look(t *testing.T) {
	req, err := Decode("look alice")
	require.NoError(t, err)
	assert.Equal(t, Request{Verb: VerbLook, PlayerID: "alice"}, req)
}

func TestDecode_Flip(t *testing.T) {
	req, err := Decode("flip alice 1 2")
	require.NoError(t, err)
	assert.Equal(t, Request{Verb: VerbFlip, PlayerID: "alice", Row: 1, Col: 2}, req)
}

func TestDecode_MapWatchUnimplemented(t *testing.T) {
	for _, line := range []string{"map alice", "watch alice"} {
		_, err := Decode(line)
		assert.True(t, errors.Is(err, ErrUnimplemented))
	}
}

func TestDecode_Malformed(t *testing.T) {
	cases := []string{
		"",
		"look",
		"look alice extra",
		"flip alice 1",
		"flip alice x 2",
		"flip alice 1 y",
		"dance alice",
	}
	for _, line := range cases {
		_, err := Decode(line)
		assert.True(t, errors.Is(err, ErrMalformedRequest), "line %q should be malformed", line)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	reqs := []Request{
		{Verb: VerbLook, PlayerID: "bob"},
		{Verb: VerbFlip, PlayerID: "bob", Row: 3, Col: 4},
	}
	for _, want := range reqs {
		got, err := Decode(Encode(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestEncodeSnapshotReply_EndsWithBlankLine(t *testing.T) {
	out := EncodeSnapshotReply("1x1\ndown\n")
	assert.Equal(t, "1x1\ndown\n\n", out)
}

func TestEncodeErrorReply_ContainsMessage(t *testing.T) {
	out := EncodeErrorReply(errors.New("empty space at (0,0)"))
	assert.Equal(t, "error: empty space at (0,0)\n\n", out)
}
