package studio

import (
	"errors"
	"fmt"

	"style-transform-server/modules/imageprep"
	"style-transform-server/modules/style"
)

// Stage - 업로드 → 스타일 선택 → 변환 → 결과/실패
type Stage int

const (
	StageEmpty Stage = iota
	StageUploaded
	StageStyleChosen
	StageTransforming
	StageResulted
	StageFailed
)

var stageNames = map[Stage]string{
	StageEmpty:        "empty",
	StageUploaded:     "uploaded",
	StageStyleChosen:  "style_chosen",
	StageTransforming: "transforming",
	StageResulted:     "resulted",
	StageFailed:       "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(text []byte) error {
	for stage, name := range stageNames {
		if name == string(text) {
			*s = stage
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", text)
}

var (
	ErrNoImage      = errors.New("upload an image first")
	ErrNotReady     = errors.New("choose an image and a style before transforming")
	ErrBusy         = errors.New("a transform is already in progress")
	ErrNoResult     = errors.New("there is no transformed image to download")
	ErrInvalidStage = errors.New("action is not available at this stage")
	// ErrSuperseded - 더 최근에 시작된 업로드/리셋 때문에 결과가 버려짐
	ErrSuperseded = errors.New("superseded by a newer action")
)

// TransformResult - 변환 한 번의 결과
type TransformResult struct {
	OriginalPreviewURI string       `json:"originalPreviewUri"`
	TransformedURI     string       `json:"transformedUri"`
	Style              style.Option `json:"style"`
}

// State - 화면 렌더링용 스냅샷
type State struct {
	Stage        Stage                    `json:"stage"`
	Image        *imageprep.UploadedImage `json:"image,omitempty"`
	Style        *style.Option            `json:"style,omitempty"`
	Result       *TransformResult         `json:"result,omitempty"`
	Error        string                   `json:"error,omitempty"`
	CanTransform bool                     `json:"canTransform"`
}
