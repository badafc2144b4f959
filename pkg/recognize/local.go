package recognize

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/binsight/go-binsight/pkg/waste"
)

// LocalConfig holds local classifier settings.
type LocalConfig struct {
	ModelPath        string
	Classes          []string // Output class names, in model order
	Mapping          waste.Mapping
	ConfidenceThresh float64
	InputSize        int
}

// DefaultLocalConfig returns production defaults for the bundled
// waste classifier.
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		ModelPath:        "models/waste_classifier.onnx",
		Classes:          []string{"plastic_bottle", "paper", "battery", "food_waste", "other"},
		Mapping:          waste.DefaultMapping(),
		ConfidenceThresh: 0.5,
		InputSize:        224,
	}
}

// Local classifies snapshots with an ONNX model via OpenCV's DNN module.
type Local struct {
	net gocv.Net
	cfg LocalConfig
	mu  sync.Mutex // Protects inference
}

// NewLocal loads the ONNX classifier from disk.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("recognize: model file not found: %s", cfg.ModelPath)
	}
	if len(cfg.Classes) == 0 {
		return nil, fmt.Errorf("recognize: classifier needs class names")
	}
	if cfg.Mapping == nil {
		cfg.Mapping = waste.DefaultMapping()
	}
	if cfg.InputSize <= 0 {
		cfg.InputSize = DefaultLocalConfig().InputSize
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("recognize: failed to load model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &Local{net: net, cfg: cfg}, nil
}

// Recognize runs the classifier on the JPEG snapshot and returns the
// top class above the confidence threshold.
func (l *Local) Recognize(ctx context.Context, jpeg []byte) (Result, error) {
	if len(jpeg) == 0 {
		return Result{}, ErrEmptySnapshot
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return Result{}, fmt.Errorf("recognize: decode image: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return Result{}, fmt.Errorf("recognize: empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0,
		image.Pt(l.cfg.InputSize, l.cfg.InputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	l.net.SetInput(blob, "")
	output := l.net.Forward("")
	defer output.Close()

	scores, err := output.DataPtrFloat32()
	if err != nil {
		return Result{}, fmt.Errorf("recognize: read output: %w", err)
	}

	best, bestScore := -1, float32(0)
	for i := 0; i < len(l.cfg.Classes) && i < len(scores); i++ {
		if scores[i] > bestScore {
			best, bestScore = i, scores[i]
		}
	}

	if best < 0 || float64(bestScore) < l.cfg.ConfidenceThresh {
		return Result{}, ErrNoClassification
	}

	label := l.cfg.Classes[best]
	return Result{
		Label:      label,
		Category:   l.cfg.Mapping.Categorize(label),
		Confidence: float64(bestScore),
	}, nil
}

// Close releases the DNN resources.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.net.Close()
}
