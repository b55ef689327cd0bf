// Command dataset prepares training data for the behavioral classifier.
//
// It has two modes:
//
//	dataset -simulate bot_data.csv
//	    writes a scripted straight-line pointer path labeled "bot"
//	dataset -features raw.csv -out training_data.csv
//	    converts raw labeled samples into velocity/acceleration features
//
// Feature conversion runs the exact extractor used for live scoring, so the
// classifier is trained on the distribution it will be scored against.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"botgate/internal/kinematics"
	"botgate/internal/models"
)

const (
	simSteps = 100
	simEndX  = 500.0
	simEndY  = 500.0
	simStep  = 0.01 // perfectly consistent timing, the bot tell
)

func main() {
	simulate := flag.String("simulate", "", "write a simulated bot path CSV to this path")
	features := flag.String("features", "", "raw labeled samples CSV to convert to features")
	out := flag.String("out", "training_data.csv", "output path for -features")
	flag.Parse()

	switch {
	case *simulate != "":
		if err := writeBotPath(*simulate); err != nil {
			fmt.Fprintln(os.Stderr, "simulate:", err)
			os.Exit(1)
		}
		fmt.Printf("Bot simulation complete. Saved to %s\n", *simulate)
	case *features != "":
		rows, err := convertFeatures(*features, *out)
		if err != nil {
			fmt.Fprintln(os.Stderr, "features:", err)
			os.Exit(1)
		}
		fmt.Printf("Converted %d samples into features. Saved to %s\n", rows, *out)
	default:
		flag.Usage()
		os.Exit(2)
	}
}

// writeBotPath emits a straight line from the origin at a constant step and
// constant time delta.
func writeBotPath(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"x", "y", "time", "label"}); err != nil {
		return err
	}
	for i := 0; i < simSteps; i++ {
		frac := float64(i) / float64(simSteps-1)
		record := []string{
			formatFloat(frac * simEndX),
			formatFloat(frac * simEndY),
			formatFloat(float64(i) * simStep),
			"bot",
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

// convertFeatures reads a raw x,y,time,label CSV and writes
// velocity,acceleration,label rows. The first sample has no predecessor and
// is dropped, as training-time processing always has.
func convertFeatures(inPath, outPath string) (int, error) {
	samples, labels, err := readRaw(inPath)
	if err != nil {
		return 0, err
	}
	if len(samples) < 2 {
		return 0, fmt.Errorf("need at least 2 samples, have %d", len(samples))
	}

	vectors := kinematics.Extract(samples)

	f, err := os.Create(outPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"velocity", "acceleration", "label"}); err != nil {
		return 0, err
	}
	written := 0
	for i := 1; i < len(vectors); i++ {
		record := []string{
			formatFloat(vectors[i].Velocity),
			formatFloat(vectors[i].Acceleration),
			labels[i],
		}
		if err := w.Write(record); err != nil {
			return written, err
		}
		written++
	}
	return written, w.Error()
}

func readRaw(path string) ([]models.Sample, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("%s holds no data rows", path)
	}

	// Skip the header row.
	samples := make([]models.Sample, 0, len(records)-1)
	labels := make([]string, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < 4 {
			return nil, nil, fmt.Errorf("row %d: want 4 columns, have %d", i+2, len(record))
		}
		x, errX := strconv.ParseFloat(record[0], 64)
		y, errY := strconv.ParseFloat(record[1], 64)
		t, errT := strconv.ParseFloat(record[2], 64)
		if errX != nil || errY != nil || errT != nil {
			return nil, nil, fmt.Errorf("row %d: malformed number", i+2)
		}
		samples = append(samples, models.Sample{X: x, Y: y, T: t})
		labels = append(labels, record[3])
	}
	return samples, labels, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
