package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	onnxrt "github.com/yalue/onnxruntime_go"
)

// Environment variable overriding the ONNX Runtime shared library location.
const EnvONNXRuntimeLib = "RXSCAN_ONNXRUNTIME_LIB"

func libraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// setupEnvironment points onnxruntime_go at the shared library and
// initializes the runtime once per process.
func setupEnvironment() error {
	if !onnxrt.IsInitialized() {
		if err := setLibraryPath(); err != nil {
			return fmt.Errorf("set ONNX Runtime library path: %w", err)
		}
		if err := onnxrt.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize ONNX Runtime: %w", err)
		}
	}
	return nil
}

func setLibraryPath() error {
	if lib := os.Getenv(EnvONNXRuntimeLib); lib != "" {
		if _, err := os.Stat(lib); err != nil {
			return fmt.Errorf("%s points at missing library %s", EnvONNXRuntimeLib, lib)
		}
		onnxrt.SetSharedLibraryPath(lib)
		return nil
	}

	name, err := libraryName()
	if err != nil {
		return err
	}

	candidates := []string{
		filepath.Join("/usr/local/lib", name),
		filepath.Join("/usr/lib", name),
		filepath.Join("onnxruntime", "lib", name),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			onnxrt.SetSharedLibraryPath(p)
			return nil
		}
	}
	return errors.New("ONNX Runtime shared library not found; set " + EnvONNXRuntimeLib)
}

// createSession builds a dynamic session for a single-input, single-output
// model.
func createSession(modelPath string, numThreads int) (*onnxrt.DynamicAdvancedSession, error) {
	inputs, outputs, err := onnxrt.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("get model input/output info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("expected 1 input, got %d", len(inputs))
	}
	if len(outputs) != 1 {
		return nil, fmt.Errorf("expected 1 output, got %d", len(outputs))
	}

	sessionOptions, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	defer func() { _ = sessionOptions.Destroy() }()

	if numThreads > 0 {
		if err := sessionOptions.SetIntraOpNumThreads(numThreads); err != nil {
			return nil, fmt.Errorf("set thread count: %w", err)
		}
	}

	session, err := onnxrt.NewDynamicAdvancedSession(modelPath,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, sessionOptions)
	if err != nil {
		return nil, fmt.Errorf("create ONNX session: %w", err)
	}
	return session, nil
}

// runSession executes a session on a prepared NCHW tensor and returns the
// flat float32 output plus its shape. The caller owns nothing; output memory
// is copied before the ONNX values are destroyed.
func runSession(session *onnxrt.DynamicAdvancedSession, data []float32, shape []int64) ([]float32, []int64, error) {
	inputTensor, err := onnxrt.NewTensor(onnxrt.NewShape(shape...), data)
	if err != nil {
		return nil, nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer func() { _ = inputTensor.Destroy() }()

	outputs := []onnxrt.Value{nil}
	if err := session.Run([]onnxrt.Value{inputTensor}, outputs); err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				_ = o.Destroy()
			}
		}
	}()

	floatTensor, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("expected float32 tensor, got %T", outputs[0])
	}

	outData := make([]float32, len(floatTensor.GetData()))
	copy(outData, floatTensor.GetData())
	outShape := append([]int64(nil), outputs[0].GetShape()...)
	return outData, outShape, nil
}
