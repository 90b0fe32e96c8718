package interfaces

// InferenceRuntime loads serialized model artifacts into callable handles.
// The runtime is an external collaborator; the core treats handles as opaque
// and assumes a handle is safe for concurrent Predict calls.
type InferenceRuntime interface {
	// LoadModel deserializes artifact bytes into a handle, or fails with a
	// runtime-load error.
	LoadModel(artifact []byte) (ModelHandle, error)
}

// ModelHandle is a loaded model ready for inference.
type ModelHandle interface {
	// Predict scores a row-major feature matrix and returns predicted class
	// labels plus per-row class probability vectors.
	Predict(features [][]float64) (classes []int, probabilities [][]float64, err error)

	// Close releases resources held by the handle.
	Close() error
}
