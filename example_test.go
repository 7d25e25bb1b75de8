// SPDX-License-Identifier: EPL-2.0

package waveview_test

import (
	"bytes"
	"fmt"

	"github.com/ik5/waveview"
	"github.com/ik5/waveview/formats/wav"
	"github.com/ik5/waveview/sample"
	"github.com/ik5/waveview/wave"
)

// Example_basicUsage demonstrates the most common use case: decoding an
// audio file into a clip and asking it for a waveform display.
func Example_basicUsage() {
	// Create a simple WAV file in memory for demonstration
	samples := make([]int16, 8000) // 1 second at 8kHz
	for i := range samples {
		if i%20 < 10 {
			samples[i] = 16384
		} else {
			samples[i] = -16384
		}
	}
	wavData := new(bytes.Buffer)
	wav.WriteWAV16(wavData, 8000, samples)

	// Decode the WAV file
	src, err := wav.Decoder{}.Decode(wavData)
	if err != nil {
		fmt.Printf("decode error: %v\n", err)
		return
	}

	// Load it into a clip at its native rate
	clip, err := waveview.LoadClip(src, sample.Int16, 8000)
	if err != nil {
		fmt.Printf("load error: %v\n", err)
		return
	}

	fmt.Printf("Loaded %.1fs at %d Hz\n", clip.EndTime()-clip.StartTime(), clip.Rate())

	// One column per pixel: 100 pixels across the whole second
	var d wave.Display
	d.Width = 100
	if _, err := clip.GetWaveDisplay(&d, 0, 100); err != nil {
		fmt.Printf("display error: %v\n", err)
		return
	}

	fmt.Printf("Column 0 peak: %.1f to %.1f\n", d.Min[0], d.Max[0])
	// Output:
	// Loaded 1.0s at 8000 Hz
	// Column 0 peak: -0.5 to 0.5
}

// Example_spectrogram renders spectrogram columns for a clip of silence.
func Example_spectrogram() {
	samples := make([]int16, 8000)
	wavData := new(bytes.Buffer)
	wav.WriteWAV16(wavData, 8000, samples)

	src, _ := wav.Decoder{}.Decode(wavData)
	clip, err := waveview.LoadClip(src, sample.Int16, 8000)
	if err != nil {
		fmt.Printf("load error: %v\n", err)
		return
	}

	settings := wave.DefaultSpectrogramSettings()
	settings.WindowSize = 256

	freq, _, _, err := clip.GetSpectrogram(0, 50, 50, settings)
	if err != nil {
		fmt.Printf("spectrogram error: %v\n", err)
		return
	}

	fmt.Printf("Columns: %d, bins per column: %d\n", 50, settings.NBins())
	fmt.Printf("Silence sits at the decibel floor: %.0f dB\n", freq[0])
	// Output:
	// Columns: 50, bins per column: 128
	// Silence sits at the decibel floor: -160 dB
}

// Example_formatRegistry shows how to pick a decoder by file extension.
func Example_formatRegistry() {
	reg := waveview.NewFormatRegistry()

	for _, ext := range []string{"wav", "ogg", "flac"} {
		if _, ok := reg.Get(ext); ok {
			fmt.Printf("%s: supported\n", ext)
		} else {
			fmt.Printf("%s: unsupported\n", ext)
		}
	}
	// Output:
	// wav: supported
	// ogg: supported
	// flac: unsupported
}
