package studio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"style-transform-server/modules/common/apperr"
	"style-transform-server/modules/common/logger"
	"style-transform-server/modules/common/utils"
	"style-transform-server/modules/download"
	"style-transform-server/modules/imageprep"
	"style-transform-server/modules/style"
	"style-transform-server/modules/transform"
)

const noImageReceivedMessage = "no transformed image was received. please try again"

// Transformer - 변환 프록시 호출 (HTTP 또는 in-process)
type Transformer interface {
	Transform(ctx context.Context, req transform.TransformRequest) (*transform.TransformResponse, error)
}

// Controller - 업로드 한 건의 상태 머신. 상태는 전이 메서드로만 바뀐다
type Controller struct {
	mu          sync.Mutex
	transformer Transformer
	prepare     func(context.Context, imageprep.Source) (*imageprep.UploadedImage, error)
	now         func() time.Time
	observer    func(State)

	stage  Stage
	image  *imageprep.UploadedImage
	style  *style.Option
	result *TransformResult
	errMsg string

	// 가장 최근에 시작된 업로드만 반영
	uploadSeq uint64
	// 업로드/리셋마다 증가. 진행 중이던 변환 결과는 epoch 가 바뀌면 버린다
	epoch uint64
}

func NewController(transformer Transformer) *Controller {
	return &Controller{
		transformer: transformer,
		prepare:     imageprep.Prepare,
		now:         time.Now,
	}
}

// OnChange - 상태가 바뀔 때마다 호출 (lock 밖에서)
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	c.observer = fn
	c.mu.Unlock()
}

// Upload - 이미지 준비가 성공해야 Uploaded 로 전이. 실패하면 상태는 그대로
func (c *Controller) Upload(ctx context.Context, src imageprep.Source) (*imageprep.UploadedImage, error) {
	c.mu.Lock()
	c.uploadSeq++
	seq := c.uploadSeq
	c.mu.Unlock()

	img, err := c.prepare(ctx, src)

	c.mu.Lock()
	if seq != c.uploadSeq {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.epoch++
	c.image = img
	c.style = nil
	c.result = nil
	c.errMsg = ""
	c.stage = StageUploaded
	c.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"name": img.Source.Name,
		"size": img.Source.Size,
		"dims": []int{img.Width, img.Height},
	}).Info("📷 [Studio] Image uploaded")
	c.notify()
	return img, nil
}

// SelectStyle - 이미지가 있어야 하고 변환 중이 아니어야 한다
func (c *Controller) SelectStyle(id int) error {
	c.mu.Lock()
	if c.stage == StageTransforming {
		c.mu.Unlock()
		return ErrBusy
	}
	if c.image == nil {
		c.mu.Unlock()
		return ErrNoImage
	}
	opt, err := style.Lookup(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	c.style = &opt
	c.result = nil
	c.errMsg = ""
	c.stage = StageStyleChosen
	c.mu.Unlock()

	c.notify()
	return nil
}

// RetryWithNewStyle - 결과/실패 화면에서 같은 이미지로 다른 스타일 선택
func (c *Controller) RetryWithNewStyle(id int) error {
	c.mu.Lock()
	stage := c.stage
	c.mu.Unlock()

	if stage != StageResulted && stage != StageFailed {
		return ErrInvalidStage
	}
	return c.SelectStyle(id)
}

// Reset - 처음부터 다시 (이미지까지 폐기)
func (c *Controller) Reset() {
	c.mu.Lock()
	c.uploadSeq++
	c.epoch++
	c.image = nil
	c.style = nil
	c.result = nil
	c.errMsg = ""
	c.stage = StageEmpty
	c.mu.Unlock()

	c.notify()
}

// Transform - StyleChosen 또는 Failed(재시도) 에서만 시작. 동시에 하나만 진행
func (c *Controller) Transform(ctx context.Context) (*TransformResult, error) {
	c.mu.Lock()
	if c.stage == StageTransforming {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	if c.image == nil || c.style == nil {
		c.mu.Unlock()
		return nil, ErrNotReady
	}
	if c.stage != StageStyleChosen && c.stage != StageFailed {
		c.mu.Unlock()
		return nil, ErrInvalidStage
	}

	image := *c.image
	chosen := *c.style
	epoch := c.epoch
	c.stage = StageTransforming
	c.result = nil
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()

	logger.WithFields(logrus.Fields{
		"style": chosen.Slug,
		"mime":  image.MimeType,
	}).Info("🎨 [Studio] Transform started")

	resp, err := c.transformer.Transform(ctx, transform.TransformRequest{
		ImageBase64: image.EncodedPayload,
		MimeType:    image.MimeType,
		StylePrompt: chosen.Instruction,
	})
	if err == nil && (resp == nil || resp.Image == "") {
		err = errors.New(noImageReceivedMessage)
	}

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err != nil {
		c.stage = StageFailed
		c.errMsg = errorMessage(err)
		c.mu.Unlock()

		logger.WithError(err).WithField("style", chosen.Slug).Warn("❌ [Studio] Transform failed")
		c.notify()
		return nil, err
	}

	result := &TransformResult{
		OriginalPreviewURI: image.PreviewURI,
		TransformedURI:     utils.DataURI(resp.MimeType, resp.Image),
		Style:              chosen,
	}
	c.result = result
	c.stage = StageResulted
	c.mu.Unlock()

	logger.WithField("style", chosen.Slug).Info("✅ [Studio] Transform completed")
	c.notify()
	out := *result
	return &out, nil
}

// Download - 결과 이미지를 흰 배경 JPG 로 변환
func (c *Controller) Download() (*download.File, error) {
	c.mu.Lock()
	if c.stage != StageResulted || c.result == nil {
		c.mu.Unlock()
		return nil, ErrNoResult
	}
	result := *c.result
	c.mu.Unlock()

	return download.ToDownloadableJPEG(result.TransformedURI, result.Style.Slug, c.now())
}

// Snapshot - 현재 상태 복사본
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	st := State{
		Stage:        c.stage,
		Error:        c.errMsg,
		CanTransform: c.image != nil && c.style != nil && (c.stage == StageStyleChosen || c.stage == StageFailed),
	}
	if c.image != nil {
		img := *c.image
		st.Image = &img
	}
	if c.style != nil {
		opt := *c.style
		st.Style = &opt
	}
	if c.result != nil {
		res := *c.result
		st.Result = &res
	}
	return st
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.observer
	st := c.snapshotLocked()
	c.mu.Unlock()

	if fn != nil {
		fn(st)
	}
}

// errorMessage - 사용자에게 보여줄 한 줄 메시지
func errorMessage(err error) string {
	if appErr, ok := apperr.As(err); ok {
		return appErr.Message
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.Message
	}
	return err.Error()
}

// retryable - 같은 입력으로 다시 보내볼 만한 에러인지 (업스트림/타임아웃/5xx)
func retryable(err error) bool {
	if appErr, ok := apperr.As(err); ok {
		return appErr.Retryable()
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote.StatusCode >= 500
	}
	return false
}
