package media

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func TestPrepareImageRecodesToJPEG(t *testing.T) {
	out, err := PrepareImage(testImage(100, 80))
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestPrepareImageCapsLongSide(t *testing.T) {
	out, err := PrepareImage(testImage(4000, 2000))
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, maxImageSide, img.Bounds().Dx())
	assert.Equal(t, maxImageSide/2, img.Bounds().Dy(), "пропорции сохраняются")
}

func TestPrepareImageCapsPortrait(t *testing.T) {
	out, err := PrepareImage(testImage(1000, 3000))
	require.NoError(t, err)

	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, maxImageSide, img.Bounds().Dy())
}

func TestPrepareImageRejectsGarbage(t *testing.T) {
	_, err := PrepareImage([]byte("esto no es una imagen"))
	assert.Error(t, err)
}

func TestPrepareImageAcceptsJPEGInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))

	out, err := PrepareImage(buf.Bytes())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestPrepareAudioPassThroughUnderCeiling(t *testing.T) {
	samples := make([]int16, 22050) // секунда тишины
	wav := encodeWAV(samples, targetSampleRate)

	out, err := PrepareAudio(wav)
	require.NoError(t, err)
	assert.Equal(t, wav, out, "под потолком запись не трогается")
}

func TestWAVRoundTrip(t *testing.T) {
	samples := []int16{0, 100, -100, 32767, -32768}
	wav := encodeWAV(samples, targetSampleRate)

	f, err := parseWAV(wav)
	require.NoError(t, err)
	assert.Equal(t, 1, f.channels)
	assert.Equal(t, targetSampleRate, f.sampleRate)
	assert.Equal(t, samples, decodeSamples(f))
}

func TestParseWAVRejectsGarbage(t *testing.T) {
	_, err := parseWAV([]byte("no es un RIFF"))
	assert.ErrorIs(t, err, ErrAudioNoSoportado)
}

func TestDownmixAveragesChannels(t *testing.T) {
	// стерео кадры: (100,300), (-200,0)
	stereo := []int16{100, 300, -200, 0}
	mono := downmix(stereo, 2)
	assert.Equal(t, []int16{200, -100}, mono)
}

func TestResampleHalvesRate(t *testing.T) {
	in := make([]int16, 100)
	for i := range in {
		in[i] = int16(i)
	}
	out := resample(in, 44100, 22050)
	assert.Len(t, out, 50)
	assert.Equal(t, int16(0), out[0])
}

func TestResampleIdentity(t *testing.T) {
	in := []int16{1, 2, 3}
	assert.Equal(t, in, resample(in, 22050, 22050))
}
