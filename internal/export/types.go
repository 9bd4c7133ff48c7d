// Package export flattens a project timeline into render instructions: either
// an ffmpeg encode plan or an EDL document for interchange with other editors.
package export

type Request struct {
	ProjectID string `json:"project_id"`
	Format    string `json:"format"`
	OutputDir string `json:"output_dir"`
	FileName  string `json:"file_name,omitempty"`
}

type Response struct {
	Status     string `json:"status"`
	Format     string `json:"format"`
	OutputPath string `json:"output_path"`
	JobID      string `json:"job_id,omitempty"`
	ClipCount  int    `json:"clip_count"`
}

// ResolvedClip is one timeline clip with its source path attached, in
// timeline order. Times are source-relative seconds.
type ResolvedClip struct {
	ClipName  string
	MediaPath string
	TrimStart float64
	TrimEnd   float64
}
