package contract

// Field order below is the wire order.

type CompileResponse struct {
	Success     bool    `json:"success"`
	Sierra      *string `json:"sierra"`
	Diagnostics string  `json:"diagnostics"`
	Error       *string `json:"error"`
}

type RunResponse struct {
	Success     bool     `json:"success"`
	Panicked    bool     `json:"panicked"`
	Values      []string `json:"values"`
	Stdout      string   `json:"stdout"`
	GasCounter  *string  `json:"gas_counter"`
	Diagnostics string   `json:"diagnostics"`
	Error       *string  `json:"error"`
}

type EstimateResponse struct {
	Success     bool    `json:"success"`
	Functions   int     `json:"functions"`
	Statements  int     `json:"statements"`
	Libfuncs    int     `json:"libfuncs"`
	CodeSize    int     `json:"code_size"`
	Approximate bool    `json:"approximate"`
	Error       *string `json:"error"`
}

// Manifest lists the embedded core library's relative paths in order.
type Manifest []string

func CompileFailure(err error, diagnostics string) CompileResponse {
	return CompileResponse{
		Success:     false,
		Diagnostics: diagnostics,
		Error:       ErrorText(err),
	}
}

func CompileSuccess(sierra, diagnostics string) CompileResponse {
	return CompileResponse{
		Success:     true,
		Sierra:      &sierra,
		Diagnostics: diagnostics,
	}
}

// RunFailure is the response for any failure that prevented or aborted
// execution. Values is empty, never null.
func RunFailure(err error, diagnostics string) RunResponse {
	return RunResponse{
		Success:     false,
		Values:      []string{},
		Diagnostics: diagnostics,
		Error:       ErrorText(err),
	}
}

func EstimateFailure(err error) EstimateResponse {
	return EstimateResponse{Error: ErrorText(err)}
}
