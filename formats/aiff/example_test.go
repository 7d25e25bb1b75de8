// SPDX-License-Identifier: EPL-2.0

package aiff_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ik5/waveview"
	"github.com/ik5/waveview/formats/aiff"
	"github.com/ik5/waveview/sample"
	"github.com/ik5/waveview/wave"
)

// Example demonstrates decoding an AIFF file into an audio source.
func Example() {
	f, err := os.Open("input.aiff")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	decoder := aiff.Decoder{}
	src, err := decoder.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Sample Rate: %d Hz\n", src.SampleRate())
	fmt.Printf("Channels: %d\n", src.Channels())
}

// ExampleDecoder_Decode_loadClip shows the usual path from an AIFF file
// to a display clip.
func ExampleDecoder_Decode_loadClip() {
	f, err := os.Open("input.aif")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	decoder := aiff.Decoder{}
	src, err := decoder.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	// Mix to mono at the file's native rate and build the clip
	clip, err := waveview.LoadClip(src, sample.Int16, src.SampleRate())
	if err != nil {
		log.Fatal(err)
	}

	var d wave.Display
	d.Width = 800
	if _, err := clip.GetWaveDisplay(&d, 0, 100); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Clip: %.2fs\n", clip.EndTime()-clip.StartTime())
}

// ExampleDecoder_Decode_streaming demonstrates streaming AIFF decoding.
func ExampleDecoder_Decode_streaming() {
	f, err := os.Open("input.aiff")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	decoder := aiff.Decoder{}
	src, err := decoder.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	// Stream in chunks
	chunkSize := 4096
	buf := make([]float32, chunkSize)

	var totalSamples int
	for {
		n, err := src.ReadSamples(buf)
		totalSamples += n

		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}
	}

	fmt.Printf("Streamed %d samples from AIFF\n", totalSamples)
}

// ExampleDecoder_Decode_errorHandling shows error handling for invalid AIFF data.
func ExampleDecoder_Decode_errorHandling() {
	decoder := aiff.Decoder{}

	// Try to decode data that is not an AIFF stream
	invalidData := bytes.NewReader([]byte("not an aiff file"))
	_, err := decoder.Decode(invalidData)
	if err != nil {
		if errors.Is(err, aiff.ErrNotAiffFile) {
			fmt.Println("not a valid AIFF file")
		} else {
			fmt.Println("decode failed")
		}
		return
	}

	fmt.Println("AIFF decoded successfully")
	// Output: not a valid AIFF file
}

// ExampleDecoder_Decode_bigEndian demonstrates AIFF's big-endian format handling.
func ExampleDecoder_Decode_bigEndian() {
	// AIFF uses big-endian byte order (unlike WAV which uses little-endian)
	// The decoder handles byte order conversion transparently
	f, err := os.Open("input.aiff")
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	decoder := aiff.Decoder{}
	src, err := decoder.Decode(f)
	if err != nil {
		log.Fatal(err)
	}

	// Output is always normalized float32 regardless of source byte order
	buf := make([]float32, 1024)
	n, _ := src.ReadSamples(buf)
	fmt.Printf("Read %d samples (byte order handled transparently)\n", n)
}
