package studio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"

	"style-transform-server/modules/common/apperr"
	"style-transform-server/modules/common/utils"
	"style-transform-server/modules/imageprep"
	"style-transform-server/modules/style"
	"style-transform-server/modules/transform"
)

// fakeTransformer - 변환 프록시 대역
type fakeTransformer struct {
	mu      sync.Mutex
	resp    *transform.TransformResponse
	err     error
	release chan struct{} // nil 이 아니면 닫힐 때까지 대기
	started chan struct{}

	calls int
	got   transform.TransformRequest
}

func (f *fakeTransformer) Transform(ctx context.Context, req transform.TransformRequest) (*transform.TransformResponse, error) {
	f.mu.Lock()
	f.calls++
	f.got = req
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.resp, f.err
}

func (f *fakeTransformer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func solidImage(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, solidImage(w, h, color.NRGBA{R: 10, G: 200, B: 30, A: 255})); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solidImage(w, h, color.RGBA{R: 120, G: 80, B: 40, A: 255}), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func pngSource(t *testing.T) imageprep.Source {
	return imageprep.Source{Name: "cat.png", MimeType: utils.MimePNG, Data: pngBytes(t, 40, 20)}
}

func pngResponse(t *testing.T) *transform.TransformResponse {
	return &transform.TransformResponse{
		Image:    base64.StdEncoding.EncodeToString(pngBytes(t, 8, 8)),
		MimeType: utils.MimePNG,
	}
}

// readyController - 업로드 + 스타일 선택까지 끝난 상태
func readyController(t *testing.T, tr Transformer, styleID int) *Controller {
	t.Helper()
	c := NewController(tr)
	if _, err := c.Upload(context.Background(), pngSource(t)); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if err := c.SelectStyle(styleID); err != nil {
		t.Fatalf("SelectStyle failed: %v", err)
	}
	return c
}

func waitForStage(t *testing.T, c *Controller, want Stage) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Snapshot().Stage == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("stage never became %s (now %s)", want, c.Snapshot().Stage)
}

func TestControllerStartsEmpty(t *testing.T) {
	c := NewController(&fakeTransformer{})
	st := c.Snapshot()
	if st.Stage != StageEmpty || st.Image != nil || st.Style != nil || st.Result != nil {
		t.Fatalf("unexpected initial state %+v", st)
	}
	if st.CanTransform {
		t.Error("transform must be disabled without image and style")
	}
}

func TestUploadThenSelectStyle(t *testing.T) {
	c := NewController(&fakeTransformer{})

	img, err := c.Upload(context.Background(), pngSource(t))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	st := c.Snapshot()
	if st.Stage != StageUploaded || st.Image == nil || st.Image.PreviewURI != img.PreviewURI {
		t.Fatalf("expected uploaded state, got %+v", st)
	}
	if st.CanTransform {
		t.Error("transform must be disabled until a style is chosen")
	}

	if err := c.SelectStyle(4); err != nil {
		t.Fatalf("SelectStyle failed: %v", err)
	}
	st = c.Snapshot()
	if st.Stage != StageStyleChosen || st.Style == nil || st.Style.ID != 4 {
		t.Fatalf("expected style 4 chosen, got %+v", st)
	}
	if !st.CanTransform {
		t.Error("transform should be enabled")
	}
}

func TestFailedUploadKeepsPreviousImage(t *testing.T) {
	c := NewController(&fakeTransformer{})
	first, err := c.Upload(context.Background(), pngSource(t))
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Upload(context.Background(), imageprep.Source{Name: "a.gif", MimeType: "image/gif", Data: []byte("GIF89a")})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	st := c.Snapshot()
	if st.Stage != StageUploaded || st.Image == nil || st.Image.PreviewURI != first.PreviewURI {
		t.Errorf("failed upload must not change state, got %+v", st)
	}
}

func TestSelectStyleGuards(t *testing.T) {
	c := NewController(&fakeTransformer{})
	if err := c.SelectStyle(1); !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage, got %v", err)
	}

	if _, err := c.Upload(context.Background(), pngSource(t)); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectStyle(999); !errors.Is(err, style.ErrNotFound) {
		t.Errorf("expected style.ErrNotFound, got %v", err)
	}
	if c.Snapshot().Stage != StageUploaded {
		t.Error("unknown style must not change state")
	}
}

func TestTransformRequiresImageAndStyle(t *testing.T) {
	tr := &fakeTransformer{resp: pngResponse(t)}
	c := NewController(tr)

	if _, err := c.Transform(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
	if _, err := c.Upload(context.Background(), pngSource(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Transform(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("expected ErrNotReady without style, got %v", err)
	}
	if tr.callCount() != 0 {
		t.Error("transformer must not be called")
	}
}

func TestTransformSuccess(t *testing.T) {
	tr := &fakeTransformer{resp: pngResponse(t)}
	c := readyController(t, tr, 4)
	c.now = func() time.Time { return time.Unix(1739000000, 0) }

	result, err := c.Transform(context.Background())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	anime, _ := style.Lookup(4)
	if tr.got.StylePrompt != anime.Instruction {
		t.Errorf("expected style instruction to be sent, got %q", tr.got.StylePrompt)
	}
	if tr.got.MimeType != utils.MimePNG || tr.got.ImageBase64 == "" {
		t.Errorf("unexpected request %+v", tr.got)
	}

	if !strings.HasPrefix(result.TransformedURI, "data:image/png;base64,") {
		t.Errorf("unexpected transformed uri prefix: %s", utils.Preview(result.TransformedURI, 40))
	}
	if result.Style.ID != 4 || result.OriginalPreviewURI == "" {
		t.Errorf("unexpected result %+v", result)
	}

	st := c.Snapshot()
	if st.Stage != StageResulted || st.Result == nil || st.CanTransform {
		t.Fatalf("expected resulted state, got %+v", st)
	}

	file, err := c.Download()
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if file.Name != "anime_1739000000.jpg" {
		t.Errorf("unexpected download name %q", file.Name)
	}
	if _, err := jpeg.Decode(bytes.NewReader(file.Data)); err != nil {
		t.Errorf("download is not a JPEG: %v", err)
	}
}

func TestTransformFailureThenRetry(t *testing.T) {
	tr := &fakeTransformer{err: &RemoteError{StatusCode: 504, Message: "request timed out after 120s"}}
	c := readyController(t, tr, 1)

	if _, err := c.Transform(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	st := c.Snapshot()
	if st.Stage != StageFailed || st.Error != "request timed out after 120s" {
		t.Fatalf("expected failed state with message, got %+v", st)
	}
	if !st.CanTransform {
		t.Error("retry should be possible from failed")
	}

	// 같은 스타일로 재시도
	tr.err = nil
	tr.resp = pngResponse(t)
	if _, err := c.Transform(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if st := c.Snapshot(); st.Stage != StageResulted || st.Error != "" {
		t.Fatalf("expected resulted after retry, got %+v", st)
	}
}

func TestTransformWithoutImageInResponse(t *testing.T) {
	tr := &fakeTransformer{resp: &transform.TransformResponse{MimeType: "image/png"}}
	c := readyController(t, tr, 2)

	if _, err := c.Transform(context.Background()); err == nil {
		t.Fatal("expected error for empty image")
	}
	st := c.Snapshot()
	if st.Stage != StageFailed || st.Error != noImageReceivedMessage {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestTransformUpstreamAppErrorMessage(t *testing.T) {
	tr := &fakeTransformer{err: apperr.NewUpstreamTextOnly("I cannot edit this photo.")}
	c := readyController(t, tr, 2)

	c.Transform(context.Background())
	if st := c.Snapshot(); st.Error != "I cannot edit this photo." {
		t.Errorf("expected model text as error, got %q", st.Error)
	}
}

func TestRetryWithNewStyle(t *testing.T) {
	tr := &fakeTransformer{resp: pngResponse(t)}
	c := readyController(t, tr, 1)

	if err := c.RetryWithNewStyle(2); !errors.Is(err, ErrInvalidStage) {
		t.Errorf("retry before a result should be rejected, got %v", err)
	}

	if _, err := c.Transform(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := c.Snapshot().Image.PreviewURI

	if err := c.RetryWithNewStyle(7); err != nil {
		t.Fatalf("RetryWithNewStyle failed: %v", err)
	}
	st := c.Snapshot()
	if st.Stage != StageStyleChosen || st.Style.ID != 7 || st.Result != nil {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.Image == nil || st.Image.PreviewURI != before {
		t.Error("image must be kept on retry")
	}
	if _, err := c.Transform(context.Background()); err != nil {
		t.Fatalf("transform after retry failed: %v", err)
	}
}

func TestTransformBusyGuards(t *testing.T) {
	tr := &fakeTransformer{
		resp:    pngResponse(t),
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c := readyController(t, tr, 1)

	done := make(chan error, 1)
	go func() {
		_, err := c.Transform(context.Background())
		done <- err
	}()
	<-tr.started

	if st := c.Snapshot(); st.Stage != StageTransforming || st.CanTransform {
		t.Errorf("expected transforming, got %+v", st)
	}
	if _, err := c.Transform(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if err := c.SelectStyle(2); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy for style change, got %v", err)
	}

	close(tr.release)
	if err := <-done; err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if tr.callCount() != 1 {
		t.Errorf("expected exactly one upstream call, got %d", tr.callCount())
	}
	waitForStage(t, c, StageResulted)
}

func TestResetDiscardsInFlightTransform(t *testing.T) {
	tr := &fakeTransformer{
		resp:    pngResponse(t),
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c := readyController(t, tr, 1)

	done := make(chan error, 1)
	go func() {
		_, err := c.Transform(context.Background())
		done <- err
	}()
	<-tr.started

	c.Reset()
	close(tr.release)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	st := c.Snapshot()
	if st.Stage != StageEmpty || st.Image != nil || st.Result != nil {
		t.Errorf("stale result must be discarded, got %+v", st)
	}
}

func TestUploadDuringTransformWins(t *testing.T) {
	tr := &fakeTransformer{
		resp:    pngResponse(t),
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	c := readyController(t, tr, 1)

	done := make(chan error, 1)
	go func() {
		_, err := c.Transform(context.Background())
		done <- err
	}()
	<-tr.started

	src := imageprep.Source{Name: "dog.jpg", MimeType: utils.MimeJPEG, Data: jpegBytes(t, 30, 30)}
	if _, err := c.Upload(context.Background(), src); err != nil {
		t.Fatal(err)
	}
	close(tr.release)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	st := c.Snapshot()
	if st.Stage != StageUploaded || st.Image.Source.Name != "dog.jpg" {
		t.Errorf("new upload should win, got %+v", st)
	}
}

func TestOlderUploadFinishingLateIsDiscarded(t *testing.T) {
	c := NewController(&fakeTransformer{})

	started := make(chan struct{})
	release := make(chan struct{})
	c.prepare = func(ctx context.Context, src imageprep.Source) (*imageprep.UploadedImage, error) {
		if src.Name == "slow.png" {
			close(started)
			<-release
		}
		return imageprep.Prepare(ctx, src)
	}

	slow := imageprep.Source{Name: "slow.png", MimeType: utils.MimePNG, Data: pngBytes(t, 40, 20)}
	done := make(chan error, 1)
	go func() {
		_, err := c.Upload(context.Background(), slow)
		done <- err
	}()
	<-started

	fast := imageprep.Source{Name: "fast.jpg", MimeType: utils.MimeJPEG, Data: jpegBytes(t, 30, 30)}
	if _, err := c.Upload(context.Background(), fast); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	close(release)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded for the older upload, got %v", err)
	}
	st := c.Snapshot()
	if st.Stage != StageUploaded || st.Image == nil || st.Image.Source.Name != "fast.jpg" {
		t.Errorf("most recent upload must remain, got %+v", st)
	}
}

func TestResetFromAnyStage(t *testing.T) {
	c := readyController(t, &fakeTransformer{resp: pngResponse(t)}, 3)
	c.Reset()
	if st := c.Snapshot(); st.Stage != StageEmpty || st.Image != nil || st.Style != nil {
		t.Fatalf("unexpected state after reset %+v", st)
	}
	// 빈 상태에서 다시 리셋해도 문제 없음
	c.Reset()
	if c.Snapshot().Stage != StageEmpty {
		t.Error("expected empty")
	}
}

func TestDownloadWithoutResult(t *testing.T) {
	c := readyController(t, &fakeTransformer{}, 1)
	if _, err := c.Download(); !errors.Is(err, ErrNoResult) {
		t.Errorf("expected ErrNoResult, got %v", err)
	}
}

func TestOnChangeReceivesTransitions(t *testing.T) {
	var mu sync.Mutex
	var stages []Stage

	c := NewController(&fakeTransformer{resp: pngResponse(t)})
	c.OnChange(func(st State) {
		mu.Lock()
		stages = append(stages, st.Stage)
		mu.Unlock()
	})

	if _, err := c.Upload(context.Background(), pngSource(t)); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectStyle(1); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Transform(context.Background()); err != nil {
		t.Fatal(err)
	}
	c.Reset()

	want := []Stage{StageUploaded, StageStyleChosen, StageTransforming, StageResulted, StageEmpty}
	mu.Lock()
	defer mu.Unlock()
	if len(stages) != len(want) {
		t.Fatalf("expected %v, got %v", want, stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("transition %d: expected %s, got %s", i, want[i], stages[i])
		}
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "validation", err: apperr.NewValidation(apperr.ReasonTooLarge, "too big"), want: false},
		{name: "upstream timeout", err: apperr.NewUpstreamTimeout("request timed out after 120s", nil), want: true},
		{name: "remote 504", err: &RemoteError{StatusCode: 504, Message: "timed out"}, want: true},
		{name: "remote 400", err: &RemoteError{StatusCode: 400, Message: "bad"}, want: false},
		{name: "busy", err: ErrBusy, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Errorf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStageMarshalText(t *testing.T) {
	text, err := StageStyleChosen.MarshalText()
	if err != nil || string(text) != "style_chosen" {
		t.Errorf("unexpected text %q (%v)", text, err)
	}
	if Stage(99).String() != "unknown" {
		t.Error("unknown stage should render as unknown")
	}

	var s Stage
	if err := s.UnmarshalText([]byte("resulted")); err != nil || s != StageResulted {
		t.Errorf("expected resulted, got %s (%v)", s, err)
	}
	if err := s.UnmarshalText([]byte("flying")); err == nil {
		t.Error("expected error for unknown stage")
	}
}

// recordingGenerator - genai 업스트림 대역 (첫 inline 이미지로 PNG 반환)
type recordingGenerator struct {
	mu    sync.Mutex
	parts []*genai.Part
	out   []byte
}

func (g *recordingGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.mu.Lock()
	g.parts = contents[0].Parts
	g.mu.Unlock()
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{
				{Text: "done"},
				{InlineData: &genai.Blob{Data: g.out, MIMEType: utils.MimePNG}},
			}},
		}},
	}, nil
}

func TestEndToEndWithLocalTransformer(t *testing.T) {
	gen := &recordingGenerator{out: pngBytes(t, 16, 8)}
	svc := transform.NewServiceWithGenerator(gen, "test-model", time.Second)
	c := NewController(LocalTransformer{Service: svc})

	src := imageprep.Source{Name: "wide.jpg", MimeType: utils.MimeJPEG, Data: jpegBytes(t, 2000, 1000)}
	img, err := c.Upload(context.Background(), src)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if img.Width != 1024 || img.Height != 512 || img.MimeType != utils.MimeJPEG {
		t.Fatalf("expected 1024x512 JPEG, got %dx%d %s", img.Width, img.Height, img.MimeType)
	}

	if err := c.SelectStyle(4); err != nil {
		t.Fatal(err)
	}
	result, err := c.Transform(context.Background())
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	anime, _ := style.Lookup(4)
	gen.mu.Lock()
	parts := gen.parts
	gen.mu.Unlock()
	if len(parts) != 2 || parts[0].Text != transform.ComposeInstruction(anime.Instruction) {
		t.Fatalf("expected composed anime instruction as first part, got %+v", parts)
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MIMEType != utils.MimeJPEG {
		t.Fatalf("expected resized JPEG as second part")
	}
	sent, _, err := image.DecodeConfig(bytes.NewReader(parts[1].InlineData.Data))
	if err != nil || sent.Width != 1024 || sent.Height != 512 {
		t.Errorf("upstream should receive the resized image, got %+v (%v)", sent, err)
	}

	mime, data, err := utils.ParseDataURI(result.TransformedURI)
	if err != nil || mime != utils.MimePNG || !bytes.Equal(data, gen.out) {
		t.Errorf("transformed uri should carry the upstream PNG (mime %q, err %v)", mime, err)
	}
}
