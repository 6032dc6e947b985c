package share_test

import (
	"testing"

	"github.com/aretw0/stepper/pkg/share"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_StepAndSpeed(t *testing.T) {
	codec := share.NewVisualizerCodec()
	got := codec.Encode(share.VisualizerState{Step: share.Int(3), Speed: share.Int(40)})
	assert.Equal(t, "s=3&sp=40", got)
}

func TestEncode_FieldOrderAndOmission(t *testing.T) {
	codec := share.NewVisualizerCodec()

	tests := []struct {
		name  string
		state share.VisualizerState
		want  string
	}{
		{"empty", share.VisualizerState{}, ""},
		{"zero step is defined", share.VisualizerState{Step: share.Int(0)}, "s=0"},
		{"empty array omitted", share.VisualizerState{Array: []int{}, Algorithm: "bubble-sort"}, "alg=bubble-sort"},
		{
			"all fields",
			share.VisualizerState{Speed: share.Int(80), Step: share.Int(2), Algorithm: "binary-search", Array: []int{5, -1, 12}},
			"a=5,-1,12&alg=binary-search&s=2&sp=80",
		},
		{"escaped", share.VisualizerState{Algorithm: "a&b=c"}, "alg=a%26b%3Dc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codec.Encode(tt.state))
		})
	}
}

func TestEncode_Prefix(t *testing.T) {
	codec := share.NewVisualizerCodec(share.WithPrefix("sort"))

	assert.Equal(t, "sort-s=1", codec.Encode(share.VisualizerState{Step: share.Int(1)}))
	assert.Equal(t, "", codec.Encode(share.VisualizerState{}))
}

func TestDecode_EmptyFragments(t *testing.T) {
	codec := share.NewVisualizerCodec()

	assert.Nil(t, codec.Decode(""))
	assert.Nil(t, codec.Decode("#"))
	assert.Nil(t, codec.Decode("#unknown=1&other=2"))
	assert.Nil(t, codec.Decode("#s=abc"))
	assert.Nil(t, codec.Decode("#s="))
}

func TestDecode_DropsOnlyMalformedFields(t *testing.T) {
	codec := share.NewVisualizerCodec()

	got := codec.Decode("#a=1,x,3&alg=bubble-sort&s=oops&sp=40&zzz=9")
	require.NotNil(t, got)

	assert.Nil(t, got.Array)
	assert.Equal(t, "bubble-sort", got.Algorithm)
	assert.Nil(t, got.Step)
	require.NotNil(t, got.Speed)
	assert.Equal(t, 40, *got.Speed)
}

func TestDecode_RejectsNonCanonicalNumbers(t *testing.T) {
	codec := share.NewVisualizerCodec()

	for _, fragment := range []string{
		"a=1,,3",
		"a=1,2,",
		"a=,1",
		"a=%2B1,2",
		"s=010",
		"s=0x10",
		"s=0b11",
		"s=0o7",
		"sp=1_0",
		"sp=%2B5",
		"t=-",
	} {
		assert.Nil(t, codec.Decode(fragment), fragment)
	}

	got := codec.Decode("a=-3,0,12&s=0&t=-7&sp=1_0")
	require.NotNil(t, got)
	assert.Equal(t, []int{-3, 0, 12}, got.Array)
	assert.Equal(t, 0, *got.Step)
	assert.Equal(t, -7, *got.Target)
	assert.Nil(t, got.Speed)
}

func TestDecode_Prefix(t *testing.T) {
	codec := share.NewVisualizerCodec(share.WithPrefix("graph"))

	got := codec.Decode("#graph-s=7")
	require.NotNil(t, got)
	assert.Equal(t, 7, *got.Step)

	assert.Nil(t, codec.Decode("#s=7"), "unprefixed payload belongs to another codec")
	assert.Nil(t, codec.Decode("#sort-s=7"))
	assert.Nil(t, codec.Decode("#graph-"))
}

func TestRoundTrip(t *testing.T) {
	codec := share.NewVisualizerCodec(share.WithPrefix("v"))

	states := []share.VisualizerState{
		{Step: share.Int(3), Speed: share.Int(40)},
		{Array: []int{9, 4, 7, 1}},
		{Algorithm: "min heap/build"},
		{Array: []int{0}, Algorithm: "linear-search", Step: share.Int(0), Speed: share.Int(100)},
	}
	for _, s := range states {
		encoded := codec.Encode(s)
		decoded := codec.Decode("#" + encoded)
		require.NotNil(t, decoded, encoded)
		assert.Equal(t, s, *decoded, encoded)
	}
}

type quizState struct {
	Question *int    `share:"q"`
	Revealed *bool   `share:"r"`
	Hint     *string `share:"h"`
	internal int
	Ignored  string `share:"-"`
}

func TestCodec_CustomSchema(t *testing.T) {
	codec, err := share.NewCodec[quizState]()
	require.NoError(t, err)

	revealed := true
	hint := "look left"
	encoded := codec.Encode(quizState{Question: share.Int(2), Revealed: &revealed, Hint: &hint, Ignored: "x"})
	assert.Equal(t, "q=2&r=true&h=look+left", encoded)

	decoded := codec.Decode(encoded)
	require.NotNil(t, decoded)
	assert.Equal(t, 2, *decoded.Question)
	assert.True(t, *decoded.Revealed)
	assert.Equal(t, "look left", *decoded.Hint)
	assert.Empty(t, decoded.Ignored)
}

func TestNewCodec_RejectsBadSchemas(t *testing.T) {
	type noTags struct{ A int }
	type badType struct {
		M map[string]int `share:"m"`
	}
	type dupKey struct {
		A string `share:"x"`
		B string `share:"x"`
	}
	type badKey struct {
		A string `share:"a=b"`
	}

	_, err := share.NewCodec[noTags]()
	assert.Error(t, err)
	_, err = share.NewCodec[badType]()
	assert.Error(t, err)
	_, err = share.NewCodec[dupKey]()
	assert.Error(t, err)
	_, err = share.NewCodec[badKey]()
	assert.Error(t, err)
	_, err = share.NewCodec[int]()
	assert.Error(t, err)
	_, err = share.NewCodec[share.VisualizerState](share.WithPrefix("a&b"))
	assert.Error(t, err)
}
