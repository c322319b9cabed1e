package glimpse

// InitMultimodalRequest carries the fields of the initMultimodal operation.
type InitMultimodalRequest struct {
	ProjectorFile string `json:"mmproj_path"`
	UseGPU        bool   `json:"use_gpu"`
	Threads       int    `json:"n_threads"`
	ImageMarker   string `json:"image_marker"`
}

// InitMultimodalResponse reports the outcome of an initMultimodal request.
// Error is empty on success.
type InitMultimodalResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ProcessImageRequest carries the fields of the processImage operation.
// Image holds the raw bitmap bytes; DataSize is the declared byte length
// and may be zero when the caller did not set it.
type ProcessImageRequest struct {
	Image    []byte `json:"image_data"`
	DataSize int    `json:"data_size"`
	Width    int32  `json:"width"`
	Height   int32  `json:"height"`
	Prompt   string `json:"prompt"`
	UseCache bool   `json:"use_cache"`
}

// ProcessImageResponse reports the outcome of a processImage request.
// Result holds the generated text on success.
type ProcessImageResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Result  string `json:"result,omitempty"`
}
