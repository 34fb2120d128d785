package download

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"style-transform-server/modules/common/apperr"
	"style-transform-server/modules/common/logger"
	"style-transform-server/modules/common/utils"
)

// JPEGQuality - 다운로드 JPG 품질 (0.92)
const JPEGQuality = 92

const retryMessage = "failed to prepare the download. please try again"

// File - 저장할 JPG 파일
type File struct {
	Name string
	Data []byte
}

// FileName - "{slug}_{unix초}.jpg"
func FileName(baseName string, at time.Time) string {
	return fmt.Sprintf("%s_%d.jpg", baseName, at.Unix())
}

// Flatten - JPG 는 투명 배경을 지원하지 않으므로 흰색 배경 위에 합성 (크기 유지)
func Flatten(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	background := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(background, img, image.Pt(0, 0), 1.0)
}

// ToDownloadableJPEG - 결과 이미지(data URI)를 흰 배경 JPG 로 변환
func ToDownloadableJPEG(imageURI, baseName string, now time.Time) (*File, error) {
	_, data, err := utils.ParseDataURI(imageURI)
	if err != nil {
		return nil, apperr.NewLoad(retryMessage, err)
	}

	img, _, err := utils.DecodeImage(data)
	if err != nil {
		return nil, apperr.NewLoad(retryMessage, err)
	}

	encoded, err := utils.EncodeImage(Flatten(img), utils.MimeJPEG, JPEGQuality)
	if err != nil || len(encoded) == 0 {
		return nil, apperr.NewEncode(retryMessage, err)
	}

	file := &File{
		Name: FileName(baseName, now),
		Data: encoded,
	}
	logger.WithFields(map[string]interface{}{
		"file":  file.Name,
		"bytes": len(file.Data),
	}).Debug("✅ [Download] JPG prepared")
	return file, nil
}

// Save - dir 에 파일 저장 후 전체 경로 반환
func Save(dir string, file *File) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, file.Name)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
