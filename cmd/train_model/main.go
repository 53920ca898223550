// Command train_model fits a delay regressor from a CSV of wind_origin,delay
// rows and writes an artifact accepted by POST /model/load/.
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"delaycast/logging"
	"delaycast/ml"
)

func main() {
	dataPath := flag.String("data", "", "CSV file with wind_origin,delay columns")
	kind := flag.String("kind", ml.KindLinear, "model kind: linear or tree")
	modelPath := flag.String("model_path", "./models/model"+ml.ArtifactExt, "model output path")
	maxDepth := flag.Int("max_depth", 5, "max tree depth")
	testRatio := flag.Float64("test_ratio", 0.2, "test ratio")
	encoding := flag.String("encoding", "utf-8", "CSV encoding: utf-8, utf-16 or windows-1252")
	flag.Parse()

	logger, _, err := logging.New(logging.Config{Level: "info"})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *dataPath == "" {
		logger.Fatal("data is required")
	}

	features, targets, err := readDataset(*dataPath, *encoding)
	if err != nil {
		logger.Fatal("failed to read dataset", zap.Error(err))
	}

	trainX, trainY, testX, testY := splitDataset(features, targets, *testRatio)

	model, err := newTrainer(*kind, *maxDepth)
	if err != nil {
		logger.Fatal("invalid model kind", zap.Error(err))
	}
	if err := model.Fit(column(trainX), trainY); err != nil {
		logger.Fatal("failed to train model", zap.Error(err))
	}

	if len(testX) > 0 {
		rmse, r2, err := evaluateModel(model, testX, testY)
		if err != nil {
			logger.Fatal("failed to evaluate model", zap.Error(err))
		}
		logger.Info("evaluation", zap.Float64("rmse", rmse), zap.Float64("r2", r2), zap.Int("test_rows", len(testX)))
	}

	if err := os.MkdirAll(filepath.Dir(*modelPath), 0o755); err != nil {
		logger.Fatal("failed to create model dir", zap.Error(err))
	}
	if err := ml.SaveModel(*modelPath, model); err != nil {
		logger.Fatal("failed to save model", zap.Error(err))
	}

	fmt.Printf("model saved to %s\n", *modelPath)
}

func newTrainer(kind string, maxDepth int) (ml.Trainer, error) {
	switch kind {
	case ml.KindLinear:
		return &ml.LinearRegression{}, nil
	case ml.KindTree:
		return ml.NewDecisionTree(maxDepth), nil
	default:
		return nil, fmt.Errorf("unsupported model kind %q", kind)
	}
}

// readDataset parses two numeric columns. A non-numeric first row is treated
// as a header.
func readDataset(path, encoding string) ([]float64, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r, err := decodeReader(f, encoding)
	if err != nil {
		return nil, nil, err
	}
	return parseDataset(r)
}

// decodeReader converts spreadsheet exports to UTF-8. A leading byte order
// mark always wins over the requested encoding and is stripped.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	var fallback xencoding.Encoding
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		fallback = unicode.UTF8
	case "utf-16", "utf16":
		fallback = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case "windows-1252", "cp1252", "latin1":
		fallback = charmap.Windows1252
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}
	return transform.NewReader(r, unicode.BOMOverride(fallback.NewDecoder())), nil
}

func parseDataset(r io.Reader) ([]float64, []float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.TrimLeadingSpace = true

	var features, targets []float64
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		x, errX := strconv.ParseFloat(row[0], 64)
		y, errY := strconv.ParseFloat(row[1], 64)
		if errX != nil || errY != nil {
			if line == 1 {
				continue
			}
			return nil, nil, fmt.Errorf("line %d: non-numeric value", line)
		}
		features = append(features, x)
		targets = append(targets, y)
	}
	if len(features) == 0 {
		return nil, nil, errors.New("dataset is empty")
	}
	return features, targets, nil
}

func splitDataset(features, targets []float64, testRatio float64) (trainX, trainY, testX, testY []float64) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}

	split := int(float64(len(features)) * (1 - testRatio))
	if split == 0 {
		split = len(features)
	}
	return features[:split], targets[:split], features[split:], targets[split:]
}

func column(values []float64) *mat.Dense {
	return mat.NewDense(len(values), 1, append([]float64(nil), values...))
}

func evaluateModel(model ml.Model, testX, testY []float64) (rmse, r2 float64, err error) {
	predicted, err := model.Predict(column(testX))
	if err != nil {
		return 0, 0, err
	}

	var sum float64
	for i, p := range predicted {
		d := p - testY[i]
		sum += d * d
	}
	rmse = math.Sqrt(sum / float64(len(predicted)))
	r2 = stat.RSquaredFrom(predicted, testY, nil)
	return rmse, r2, nil
}
