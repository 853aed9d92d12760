package midi

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixmentor/mixmentor-api/internal/models"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// chunk is a decoded SMF chunk
type chunk struct {
	id   string
	body []byte
}

func decodeChunks(t *testing.T, data []byte) []chunk {
	t.Helper()
	var chunks []chunk
	for len(data) > 0 {
		require.GreaterOrEqual(t, len(data), 8, "truncated chunk header")
		id := string(data[:4])
		size := binary.BigEndian.Uint32(data[4:8])
		require.GreaterOrEqual(t, len(data), int(8+size), "truncated chunk body")
		chunks = append(chunks, chunk{id: id, body: data[8 : 8+size]})
		data = data[8+size:]
	}
	return chunks
}

func readVarLen(t *testing.T, data []byte) (int, []byte) {
	t.Helper()
	v := 0
	for i := 0; i < len(data); i++ {
		v = (v << 7) | int(data[i]&0x7F)
		if data[i]&0x80 == 0 {
			return v, data[i+1:]
		}
	}
	t.Fatal("unterminated variable-length quantity")
	return 0, nil
}

// trackEvent is a decoded track event with its absolute tick
type trackEvent struct {
	tick   int
	status byte
	meta   byte
	data   []byte
}

func decodeTrack(t *testing.T, body []byte) []trackEvent {
	t.Helper()
	var events []trackEvent
	tick := 0
	for len(body) > 0 {
		var delta int
		delta, body = readVarLen(t, body)
		tick += delta
		status := body[0]
		switch {
		case status == 0xFF:
			metaType := body[1]
			var size int
			size, body = readVarLen(t, body[2:])
			events = append(events, trackEvent{tick: tick, status: status, meta: metaType, data: body[:size]})
			body = body[size:]
		case status&0xF0 == 0x90 || status&0xF0 == 0x80:
			events = append(events, trackEvent{tick: tick, status: status, data: body[1:3]})
			body = body[3:]
		default:
			t.Fatalf("unexpected status byte 0x%02X", status)
		}
	}
	return events
}

func TestBuildSingleTrack(t *testing.T) {
	comp := &models.Composition{
		Tempo:         100,
		TimeSignature: []int{3, 4},
		Tracks: []models.Track{
			{
				Instrument: "Bass",
				Notes: []models.Note{
					{Pitch: intPtr(40), Velocity: intPtr(90), StartTime: floatPtr(0), Duration: floatPtr(1)},
				},
			},
		},
	}

	data, err := Build(comp)
	require.NoError(t, err)

	chunks := decodeChunks(t, data)
	require.Len(t, chunks, 2)

	// header: format 1, one track, 480 tpqn
	assert.Equal(t, "MThd", chunks[0].id)
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(chunks[0].body[0:2]))
	assert.Equal(t, uint16(1), binary.BigEndian.Uint16(chunks[0].body[2:4]))
	assert.Equal(t, uint16(480), binary.BigEndian.Uint16(chunks[0].body[4:6]))

	assert.Equal(t, "MTrk", chunks[1].id)
	events := decodeTrack(t, chunks[1].body)

	// tempo first: 100 bpm -> 600000 us per beat
	require.GreaterOrEqual(t, len(events), 5)
	assert.Equal(t, byte(0x51), events[0].meta)
	usPerBeat := int(events[0].data[0])<<16 | int(events[0].data[1])<<8 | int(events[0].data[2])
	assert.Equal(t, 600000, usPerBeat)

	// time signature 3/4 -> denominator stored as log2
	assert.Equal(t, byte(0x58), events[1].meta)
	assert.Equal(t, byte(3), events[1].data[0])
	assert.Equal(t, byte(2), events[1].data[1])

	assert.Equal(t, byte(0x03), events[2].meta)
	assert.Equal(t, "Bass", string(events[2].data))

	// note on at tick 0, note off at tick 480
	assert.Equal(t, byte(0x90), events[3].status)
	assert.Equal(t, 0, events[3].tick)
	assert.Equal(t, byte(40), events[3].data[0])
	assert.Equal(t, byte(90), events[3].data[1])

	assert.Equal(t, byte(0x80), events[4].status)
	assert.Equal(t, 480, events[4].tick)
	assert.Equal(t, byte(40), events[4].data[0])
	assert.Equal(t, byte(0), events[4].data[1])

	assert.Equal(t, byte(0x2F), events[len(events)-1].meta)
}

func TestBuildDefaults(t *testing.T) {
	comp := &models.Composition{
		Tracks: []models.Track{
			{Notes: []models.Note{{}}},
		},
	}

	data, err := Build(comp)
	require.NoError(t, err)

	chunks := decodeChunks(t, data)
	events := decodeTrack(t, chunks[1].body)

	// defaults: 120 bpm, 4/4, track name "Track", pitch 60, velocity 100
	usPerBeat := int(events[0].data[0])<<16 | int(events[0].data[1])<<8 | int(events[0].data[2])
	assert.Equal(t, 500000, usPerBeat)
	assert.Equal(t, byte(4), events[1].data[0])
	assert.Equal(t, byte(2), events[1].data[1])
	assert.Equal(t, "Track", string(events[2].data))
	assert.Equal(t, byte(60), events[3].data[0])
	assert.Equal(t, byte(100), events[3].data[1])
	assert.Equal(t, 480, events[4].tick)
}

func TestBuildMetaOnFirstTrackOnly(t *testing.T) {
	comp := &models.Composition{
		Tracks: []models.Track{
			{Instrument: "Keys", Notes: []models.Note{{}}},
			{Instrument: "Bass", Notes: []models.Note{{}}},
		},
	}

	data, err := Build(comp)
	require.NoError(t, err)

	chunks := decodeChunks(t, data)
	require.Len(t, chunks, 3)
	assert.Equal(t, uint16(2), binary.BigEndian.Uint16(chunks[0].body[2:4]))

	second := decodeTrack(t, chunks[2].body)
	for _, ev := range second {
		assert.NotEqual(t, byte(0x51), ev.meta, "tempo belongs on the first track only")
		assert.NotEqual(t, byte(0x58), ev.meta, "time signature belongs on the first track only")
	}
	assert.Equal(t, byte(0x03), second[0].meta)
	assert.Equal(t, "Bass", string(second[0].data))
}

func TestBuildOffBeforeOnAtSameTick(t *testing.T) {
	// back-to-back eighth notes on the same pitch: the first note's off and
	// the second note's on land on the same tick, off must come first
	comp := &models.Composition{
		Tracks: []models.Track{
			{
				Notes: []models.Note{
					{Pitch: intPtr(64), StartTime: floatPtr(0), Duration: floatPtr(0.5)},
					{Pitch: intPtr(64), StartTime: floatPtr(0.5), Duration: floatPtr(0.5)},
				},
			},
		},
	}

	data, err := Build(comp)
	require.NoError(t, err)

	chunks := decodeChunks(t, data)
	events := decodeTrack(t, chunks[1].body)

	var at240 []byte
	for _, ev := range events {
		if ev.tick == 240 && ev.status != 0xFF {
			at240 = append(at240, ev.status)
		}
	}
	require.Equal(t, []byte{0x80, 0x90}, at240)
}

func TestBuildZeroDurationNote(t *testing.T) {
	comp := &models.Composition{
		Tracks: []models.Track{
			{
				Notes: []models.Note{
					{Pitch: intPtr(36), StartTime: floatPtr(1), Duration: floatPtr(0)},
				},
			},
		},
	}

	data, err := Build(comp)
	require.NoError(t, err)

	chunks := decodeChunks(t, data)
	events := decodeTrack(t, chunks[1].body)

	var statuses []byte
	for _, ev := range events {
		if ev.tick == 480 && ev.status != 0xFF {
			statuses = append(statuses, ev.status)
		}
	}
	// both events survive, on before off for the same note
	require.Equal(t, []byte{0x90, 0x80}, statuses)
}

func TestBuildRejectsOutOfRangePitch(t *testing.T) {
	comp := &models.Composition{
		Tracks: []models.Track{
			{Notes: []models.Note{{Pitch: intPtr(200)}}},
		},
	}
	_, err := Build(comp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pitch")
}

func TestVarLenEncoding(t *testing.T) {
	cases := []struct {
		value int
		want  []byte
	}{
		{0, []byte{0x00}},
		{0x7F, []byte{0x7F}},
		{0x80, []byte{0x81, 0x00}},
		{480, []byte{0x83, 0x60}},
		{0x3FFF, []byte{0xFF, 0x7F}},
		{0x4000, []byte{0x81, 0x80, 0x00}},
	}
	for _, tc := range cases {
		var buf bytes.Buffer
		writeVarLen(&buf, tc.value)
		assert.Equal(t, tc.want, buf.Bytes(), "value %d", tc.value)
	}
}
