package scene

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"
)

// Charset maps CTC class indices to characters. Index 0 is the blank token;
// dictionary entries start at index 1.
type Charset struct {
	chars []string
}

// LoadCharset reads a dictionary file with one character per line.
func LoadCharset(path string) (*Charset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var chars []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			// A bare newline entry encodes the space character.
			line = " "
		}
		chars = append(chars, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("empty dictionary: %s", path)
	}
	return &Charset{chars: chars}, nil
}

// Size returns the number of non-blank classes.
func (c *Charset) Size() int { return len(c.chars) }

// Char returns the character for a CTC class index, or empty for the blank
// and out-of-range indices.
func (c *Charset) Char(idx int) string {
	if idx <= 0 || idx > len(c.chars) {
		return ""
	}
	return c.chars[idx-1]
}

// decodeCTC greedy-decodes logits of shape [T, C]: per timestep argmax,
// collapse repeats, drop blanks. The returned confidence is the mean softmax
// probability of the kept characters, or 0 when nothing survives.
func decodeCTC(logits []float32, timesteps, classes int, charset *Charset) (string, float64) {
	if timesteps <= 0 || classes <= 0 || len(logits) < timesteps*classes {
		return "", 0
	}

	var sb strings.Builder
	var probSum float64
	var kept int
	prev := -1

	for t := 0; t < timesteps; t++ {
		row := logits[t*classes : (t+1)*classes]
		idx, _ := argmax(row)

		if idx != 0 && idx != prev {
			sb.WriteString(charset.Char(idx))
			probSum += softmaxProb(row, idx)
			kept++
		}
		prev = idx
	}

	if kept == 0 {
		return "", 0
	}
	conf := probSum / float64(kept)
	if conf > 1 {
		conf = 1
	}
	return sb.String(), conf
}

func argmax(v []float32) (int, float32) {
	if len(v) == 0 {
		return -1, 0
	}
	idx := 0
	maxVal := v[0]
	for i := 1; i < len(v); i++ {
		if v[i] > maxVal {
			maxVal = v[i]
			idx = i
		}
	}
	return idx, maxVal
}

// softmaxProb computes the softmax probability of v[idx]. Outputs that
// already look like probabilities are passed through unchanged.
func softmaxProb(v []float32, idx int) float64 {
	if idx < 0 || idx >= len(v) {
		return 0
	}

	var sum float64
	minV, maxV := v[0], v[0]
	for _, x := range v {
		sum += float64(x)
		if x < minV {
			minV = x
		}
		if x > maxV {
			maxV = x
		}
	}
	if sum > 0.99 && sum < 1.01 && minV >= 0 && maxV <= 1 {
		return float64(v[idx])
	}

	var denom float64
	for _, x := range v {
		denom += math.Exp(float64(x - maxV))
	}
	if denom == 0 {
		return 0
	}
	return math.Exp(float64(v[idx]-maxV)) / denom
}
