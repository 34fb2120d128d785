package imageprep

import (
	"context"
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"style-transform-server/modules/common/apperr"
	"style-transform-server/modules/common/logger"
	"style-transform-server/modules/common/utils"
)

const decodeFailedMessage = "failed to load the image. please try another file"

// Validate - 1) MIME 타입 2) 파일 크기 순서로 검사
func Validate(src Source) error {
	if !slices.Contains(SupportedTypes, src.MimeType) {
		return apperr.NewValidation(apperr.ReasonUnsupportedType,
			"unsupported file type. please upload a JPG, PNG or WEBP file")
	}
	if src.Size() > MaxFileSize {
		return apperr.NewValidation(apperr.ReasonTooLarge,
			"file is larger than 10MB. please choose a smaller file")
	}
	return nil
}

// FitWithin - 긴 변이 maxSide 를 넘으면 비율 유지하며 축소 (확대는 하지 않음)
func FitWithin(width, height, maxSide int) (int, int) {
	longest := max(width, height)
	if longest <= maxSide {
		return width, height
	}

	ratio := float64(maxSide) / float64(longest)
	w := int(math.Round(float64(width) * ratio))
	h := int(math.Round(float64(height) * ratio))
	return max(w, 1), max(h, 1)
}

// Prepare - 검증 → 디코딩 → 리사이즈 → 원래 MIME 으로 재인코딩
// 실패하면 UploadedImage 는 nil
func Prepare(ctx context.Context, src Source) (*UploadedImage, error) {
	if err := Validate(src); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := utils.DecodeImage(src.Data)
	if err != nil {
		logger.WithError(err).WithField("name", src.Name).Warn("⚠️  [ImagePrep] Decode failed")
		return nil, apperr.NewDecode(decodeFailedMessage, err)
	}

	bounds := img.Bounds()
	width, height := FitWithin(bounds.Dx(), bounds.Dy(), MaxDimension)
	if width != bounds.Dx() || height != bounds.Dy() {
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded, err := utils.EncodeImage(img, src.MimeType, EncodeQuality)
	if err != nil {
		logger.WithError(err).WithField("name", src.Name).Warn("⚠️  [ImagePrep] Encode failed")
		return nil, apperr.NewDecode(decodeFailedMessage, err)
	}

	payload := base64.StdEncoding.EncodeToString(encoded)

	logger.WithFields(map[string]interface{}{
		"name":    src.Name,
		"format":  format,
		"source":  fmt.Sprintf("%dx%d", bounds.Dx(), bounds.Dy()),
		"resized": fmt.Sprintf("%dx%d", width, height),
		"bytes":   len(encoded),
	}).Debug("✅ [ImagePrep] Image prepared")

	return &UploadedImage{
		Source:         SourceInfo{Name: src.Name, Size: src.Size()},
		PreviewURI:     utils.DataURI(src.MimeType, payload),
		EncodedPayload: payload,
		MimeType:       src.MimeType,
		Width:          width,
		Height:         height,
	}, nil
}

// Open - 로컬 파일을 읽고 내용으로 MIME 타입 판별
func Open(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	mimeType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return Source{
		Name:     filepath.Base(path),
		MimeType: strings.TrimSpace(mimeType),
		Data:     data,
	}, nil
}
