// Package api is the backend adapter: one method per endpoint, each
// building a multipart body from typed arguments and decoding the JSON
// answer. Every failure is a single RequestFailed error.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/kbukum/wavechat/audio"
	"github.com/kbukum/wavechat/errors"
	"github.com/kbukum/wavechat/httpclient"
	"github.com/kbukum/wavechat/logger"
	"github.com/kbukum/wavechat/validation"
)

// Endpoint paths, relative to the configured base URL.
const (
	PathSpectrogram = "/api/spectrogram"
	PathAnalyze     = "/api/analyze"
	PathChat        = "/api/chat"
)

// Client calls the analysis backend.
type Client struct {
	http *httpclient.Client
	log  *logger.Logger
}

// New creates a backend client over hc.
func New(hc *httpclient.Client) *Client {
	return &Client{http: hc, log: logger.WithComponent("api")}
}

// FetchSpectrogram requests a spectrogram preview of [startSec, endSec].
func (c *Client) FetchSpectrogram(ctx context.Context, src audio.Source, startSec, endSec float64) (*PreviewResult, error) {
	if err := validateRange(src, startSec, endSec); err != nil {
		return nil, err
	}

	body, closeFile, err := newAudioBody(src, startSec, endSec)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	resp, err := c.post(ctx, PathSpectrogram, body)
	if err != nil {
		return nil, err
	}
	out := &PreviewResult{}
	if err := httpclient.DecodeJSON(resp, &out.Payload); err != nil {
		return nil, err
	}
	return out, nil
}

// AnalyzeAudio submits [startSec, endSec] with params and returns the new
// session.
func (c *Client) AnalyzeAudio(ctx context.Context, src audio.Source, startSec, endSec float64, params AnalysisParams) (*AnalysisResult, error) {
	if err := validateRange(src, startSec, endSec); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	body, closeFile, err := newAudioBody(src, startSec, endSec)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	body.Add("prompt", params.Prompt).
		Add("modelId", params.ModelID).
		Add("temperature", formatFloat(params.Temperature)).
		Add("thinkingBudget", strconv.Itoa(params.ThinkingBudget)).
		Add("mode", string(params.Mode))
	if params.BPM != nil {
		body.Add("bpm", formatFloat(*params.BPM))
	}
	if len(params.Chords) > 0 {
		chords, err := json.Marshal(params.Chords)
		if err != nil {
			return nil, errors.InvalidInput("chords", err.Error()).WithCause(err)
		}
		body.Add("chords", string(chords))
	}

	resp, err := c.post(ctx, PathAnalyze, body)
	if err != nil {
		return nil, err
	}
	out := &AnalysisResult{}
	if err := httpclient.DecodeJSON(resp, &out.Payload); err != nil {
		return nil, err
	}
	out.SessionID = out.StringField("sessionId")
	if out.SessionID == "" {
		return nil, errors.RequestFailed(resp.StatusCode, "response missing sessionId")
	}

	c.log.Debug("analysis session started", logger.Fields(
		logger.FieldSessionID, out.SessionID,
		logger.FieldRequestID, resp.RequestID,
	))
	return out, nil
}

// SendChatMessage sends a follow-up message within a session.
func (c *Client) SendChatMessage(ctx context.Context, sessionID, message string) (*ChatResult, error) {
	v := validation.New().
		Required("sessionId", sessionID).
		Required("message", message)
	if appErr := v.Validate(); appErr != nil {
		return nil, appErr
	}

	body := (&httpclient.MultipartBody{}).
		Add("sessionId", sessionID).
		Add("message", message)

	resp, err := c.post(ctx, PathChat, body)
	if err != nil {
		return nil, err
	}
	out := &ChatResult{}
	if err := httpclient.DecodeJSON(resp, &out.Payload); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body *httpclient.MultipartBody) (*httpclient.Response, error) {
	return c.http.Do(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// newAudioBody starts a multipart body with the file part and the range.
// The returned func closes the file reader.
func newAudioBody(src audio.Source, startSec, endSec float64) (*httpclient.MultipartBody, func(), error) {
	rc, err := src.Open()
	if err != nil {
		return nil, nil, errors.InvalidInput("file", fmt.Sprintf("open %s: %v", src.Name(), err)).WithCause(err)
	}
	body := &httpclient.MultipartBody{
		Files: []httpclient.FileField{{
			FieldName:   "file",
			FileName:    src.Name(),
			ContentType: src.ContentType(),
			Reader:      rc,
		}},
	}
	body.Add("startSec", formatFloat(startSec)).Add("endSec", formatFloat(endSec))
	return body, func() { _ = rc.Close() }, nil
}

func validateRange(src audio.Source, startSec, endSec float64) error {
	if src == nil {
		return errors.InvalidInput("file", "audio source is required")
	}
	v := validation.New().
		Finite("startSec", startSec).
		Finite("endSec", endSec)
	if !v.HasErrors() {
		v.MinFloat("startSec", startSec, 0).
			Custom(endSec > startSec, "endSec", "must be greater than startSec")
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// formatFloat writes the shortest decimal that round-trips.
func formatFloat(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
