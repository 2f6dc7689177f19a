package scene

import (
	"fmt"
	"image"
)

// runDetection executes the detection model and returns the probability map
// with its dimensions and the factors mapping map coordinates back onto the
// input raster.
func (e *Engine) runDetection(img *image.Gray) ([]float32, int, int, float64, float64, error) {
	input, scaleX, scaleY := detectionInput(img, e.config.MaxDetectionSide)
	w, h := input.Bounds().Dx(), input.Bounds().Dy()

	data, shape, err := runSession(e.detSession, grayToNCHW(input), []int64{1, 1, int64(h), int64(w)})
	if err != nil {
		return nil, 0, 0, 0, 0, err
	}

	// Expect [1,1,H,W]; tolerate [1,H,W].
	mapH, mapW := h, w
	switch len(shape) {
	case 4:
		mapH, mapW = int(shape[2]), int(shape[3])
	case 3:
		mapH, mapW = int(shape[1]), int(shape[2])
	default:
		return nil, 0, 0, 0, 0, fmt.Errorf("unexpected detection output rank %d", len(shape))
	}
	if len(data) < mapW*mapH {
		return nil, 0, 0, 0, 0, fmt.Errorf("detection output too small: %d < %d", len(data), mapW*mapH)
	}

	// The map may be emitted at a lower resolution than the input.
	scaleX *= float64(w) / float64(mapW)
	scaleY *= float64(h) / float64(mapH)

	return data[:mapW*mapH], mapW, mapH, scaleX, scaleY, nil
}

// runRecognition executes the recognition model on a region crop and decodes
// the CTC output.
func (e *Engine) runRecognition(crop *image.Gray) (string, float64, error) {
	input := recognitionInput(crop, e.config.ImageHeight)
	w, h := input.Bounds().Dx(), input.Bounds().Dy()

	data, shape, err := runSession(e.recSession, grayToNCHW(input), []int64{1, 1, int64(h), int64(w)})
	if err != nil {
		return "", 0, err
	}

	// Expect [1,T,C]; tolerate [T,C].
	var timesteps, classes int
	switch len(shape) {
	case 3:
		timesteps, classes = int(shape[1]), int(shape[2])
	case 2:
		timesteps, classes = int(shape[0]), int(shape[1])
	default:
		return "", 0, fmt.Errorf("unexpected recognition output rank %d", len(shape))
	}
	if classes != e.charset.Size()+1 {
		return "", 0, fmt.Errorf("model emits %d classes, dictionary has %d entries", classes, e.charset.Size())
	}

	text, conf := decodeCTC(data, timesteps, classes, e.charset)
	return text, conf, nil
}
