package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// целевой формат перекодирования: моно, 22.05 кГц, 16 бит PCM
const (
	targetSampleRate = 22050
	targetChannels   = 1
	targetBitDepth   = 16
)

var (
	ErrAudioNoSoportado = errors.New("formato de audio no soportado, se espera WAV PCM de 16 bits")
	ErrAudioMuyGrande   = errors.New("el audio supera el tamaño máximo incluso re-codificado")
)

type wavFormat struct {
	channels   int
	sampleRate int
	bitDepth   int
	data       []byte // сырые сэмплы PCM
}

// PrepareAudio готовит аудиозапись к отправке. Запись, которая уже влезает
// в потолок, уходит как есть; слишком крупная перекодируется в моно
// 22.05 кГц 16 бит и собирается в новый WAV-контейнер.
func PrepareAudio(data []byte) ([]byte, error) {
	if len(data) <= MaxUploadBytes {
		return data, nil
	}

	f, err := parseWAV(data)
	if err != nil {
		return nil, err
	}

	samples := decodeSamples(f)
	mono := downmix(samples, f.channels)
	resampled := resample(mono, f.sampleRate, targetSampleRate)

	out := encodeWAV(resampled, targetSampleRate)
	if len(out) > MaxUploadBytes {
		return nil, ErrAudioMuyGrande
	}
	return out, nil
}

// parseWAV разбирает RIFF-контейнер и вытаскивает fmt и data чанки
func parseWAV(data []byte) (*wavFormat, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, ErrAudioNoSoportado
	}

	f := &wavFormat{}
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, ErrAudioNoSoportado
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 { // только несжатый PCM
				return nil, ErrAudioNoSoportado
			}
			f.channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			f.sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			f.bitDepth = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			f.data = data[body : body+size]
		}

		pos = body + size
		if size%2 == 1 {
			pos++ // чанки выровнены по чётному смещению
		}
	}

	if f.data == nil || f.channels == 0 || f.sampleRate == 0 {
		return nil, ErrAudioNoSoportado
	}
	if f.bitDepth != targetBitDepth {
		return nil, fmt.Errorf("%w: %d бит", ErrAudioNoSoportado, f.bitDepth)
	}
	return f, nil
}

func decodeSamples(f *wavFormat) []int16 {
	n := len(f.data) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		out[i] = int16(binary.LittleEndian.Uint16(f.data[i*2 : i*2+2]))
	}
	return out
}

// downmix сводит мультиканальный поток в моно усреднением кадра
func downmix(samples []int16, channels int) []int16 {
	if channels <= 1 {
		return samples
	}
	frames := len(samples) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += int(samples[i*channels+ch])
		}
		out[i] = int16(sum / channels)
	}
	return out
}

// resample меняет частоту дискретизации линейной интерполяцией
func resample(samples []int16, from, to int) []int16 {
	if from == to || len(samples) == 0 {
		return samples
	}
	n := len(samples) * to / from
	if n < 1 {
		n = 1
	}
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		pos := float64(i) * float64(from) / float64(to)
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = int16(float64(samples[j])*(1-frac) + float64(samples[j+1])*frac)
	}
	return out
}

// encodeWAV собирает моно 16-бит PCM в RIFF-контейнер
func encodeWAV(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))

	byteRate := sampleRate * targetChannels * targetBitDepth / 8
	blockAlign := targetChannels * targetBitDepth / 8

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(targetChannels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(targetBitDepth))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		binary.Write(buf, binary.LittleEndian, s)
	}
	return buf.Bytes()
}
