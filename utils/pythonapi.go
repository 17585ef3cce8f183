package utils

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"telereach/config"
)

// PythonAPIClient talks to the external sending service. The service owns
// actual Telegram delivery, pacing and retries; this client is a thin typed
// wrapper over its JSON endpoints.
type PythonAPIClient struct {
	BaseURL string
	Timeout time.Duration
	HTTP    *fasthttp.Client
	Logger  *logrus.Entry
}

func NewPythonAPIClient(logger *logrus.Logger) *PythonAPIClient {
	return &PythonAPIClient{
		BaseURL: config.AppConfig.PythonAPIURL,
		Timeout: time.Duration(config.AppConfig.PythonAPITimeout) * time.Second,
		HTTP:    &fasthttp.Client{},
		Logger:  logger.WithField("component", "python_api"),
	}
}

// UpstreamError carries the sending service's status code and raw response
// body so handlers can pass both through to the caller. StatusCode 0 means
// the service was unreachable or returned garbage.
type UpstreamError struct {
	StatusCode int
	Details    json.RawMessage
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("python api: %v", e.Err)
	}
	return fmt.Sprintf("python api: status %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Chat is one recipient conversation with accumulated message history.
type Chat struct {
	Phone    string   `json:"phone"`
	Messages []string `json:"messages"`
}

// ExecuteCampaignRequest is the send job handed to the service. Filter,
// quiet-hour and nudge fields ride at the top level of the payload.
type ExecuteCampaignRequest struct {
	Session    string `json:"session"`
	Message    string `json:"message"`
	AccountID  uint   `json:"account_id"`
	CampaignID uint   `json:"campaign_id"`
	Limit      int    `json:"limit,omitempty"`

	ChatStartTime     string   `json:"chat_start_time,omitempty"`
	ChatStartTimeCmp  string   `json:"chat_start_time_cmp,omitempty"`
	NewestChatTime    string   `json:"newest_chat_time,omitempty"`
	NewestChatTimeCmp string   `json:"newest_chat_time_cmp,omitempty"`
	SleepTime         int      `json:"sleep_time,omitempty"`
	IncludeCategories []string `json:"include_categories,omitempty"`
	ExcludeCategories []string `json:"exclude_categories,omitempty"`

	QuietHoursStart string `json:"quiet_hours_start,omitempty"`
	QuietHoursEnd   string `json:"quiet_hours_end,omitempty"`
	NudgeMessage    string `json:"nudge_message,omitempty"`
	NudgeDelayHours int    `json:"nudge_delay_hours,omitempty"`
}

// ConnectResult is the intermediate state returned when a login code is sent.
type ConnectResult struct {
	Session       string `json:"session"`
	PhoneCodeHash string `json:"phone_code_hash"`
}

func (c *PythonAPIClient) do(method, path string, body interface{}) (json.RawMessage, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.BaseURL + path)
	req.Header.SetMethod(method)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &UpstreamError{Err: err}
		}
		req.Header.SetContentType("application/json")
		req.SetBody(data)
	}

	if err := c.HTTP.DoTimeout(req, resp, c.Timeout); err != nil {
		c.Logger.WithField("path", path).Warnf("request failed: %v", err)
		return nil, &UpstreamError{Err: err}
	}

	status := resp.StatusCode()
	raw := json.RawMessage(append([]byte(nil), resp.Body()...))
	if status < 200 || status >= 300 {
		c.Logger.WithFields(logrus.Fields{"path": path, "status": status}).Warn("non-success response")
		return nil, &UpstreamError{StatusCode: status, Details: raw}
	}
	return raw, nil
}

// Chats fetches the recipient list for a session. Any failure yields an
// empty list: categorization treats a failed fetch as a no-op.
func (c *PythonAPIClient) Chats(session string) []Chat {
	raw, err := c.do(fasthttp.MethodPost, "/chats", map[string]string{"session": session})
	if err != nil {
		c.Logger.Warnf("chats fetch failed: %v", err)
		return nil
	}
	var parsed struct {
		Chats []Chat `json:"chats"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.Logger.Warnf("chats response unparseable: %v", err)
		return nil
	}
	c.Logger.Infof("fetched %d chats", len(parsed.Chats))
	return parsed.Chats
}

func (c *PythonAPIClient) ExecuteCampaign(req ExecuteCampaignRequest) (json.RawMessage, error) {
	return c.do(fasthttp.MethodPost, "/execute_campaign", req)
}

func (c *PythonAPIClient) StopCampaign(campaignID uint) (json.RawMessage, error) {
	return c.do(fasthttp.MethodPost, fmt.Sprintf("/stop_campaign/%d", campaignID), nil)
}

func (c *PythonAPIClient) ResumeCampaign(campaignID uint) (json.RawMessage, error) {
	return c.do(fasthttp.MethodPost, fmt.Sprintf("/resume_campaign/%d", campaignID), nil)
}

func (c *PythonAPIClient) CampaignStatus(campaignID uint) (json.RawMessage, error) {
	return c.do(fasthttp.MethodGet, fmt.Sprintf("/campaign_status/%d", campaignID), nil)
}

func (c *PythonAPIClient) CampaignLogs(campaignID uint) (json.RawMessage, error) {
	return c.do(fasthttp.MethodGet, fmt.Sprintf("/campaign_logs/%d", campaignID), nil)
}

func (c *PythonAPIClient) CampaignData(campaignID uint) (json.RawMessage, error) {
	return c.do(fasthttp.MethodGet, fmt.Sprintf("/campaign_data/%d", campaignID), nil)
}

func (c *PythonAPIClient) UpdateCampaign(campaignID uint, body json.RawMessage) (json.RawMessage, error) {
	return c.do(fasthttp.MethodPost, fmt.Sprintf("/update_campaign/%d", campaignID), body)
}

func (c *PythonAPIClient) SessionConnect(phone string) (*ConnectResult, error) {
	raw, err := c.do(fasthttp.MethodPost, "/session/connect", map[string]string{"phone": phone})
	if err != nil {
		return nil, err
	}
	var result ConnectResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &UpstreamError{Err: err}
	}
	if result.Session == "" || result.PhoneCodeHash == "" {
		return nil, &UpstreamError{StatusCode: fasthttp.StatusInternalServerError, Details: raw}
	}
	return &result, nil
}

// SessionVerify exchanges the login code for the final session blob.
func (c *PythonAPIClient) SessionVerify(phone, code, session, phoneCodeHash string) (string, error) {
	raw, err := c.do(fasthttp.MethodPost, "/session/verify", map[string]string{
		"phone":           phone,
		"code":            code,
		"session":         session,
		"phone_code_hash": phoneCodeHash,
	})
	if err != nil {
		return "", err
	}
	var result struct {
		Session string `json:"session"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", &UpstreamError{Err: err}
	}
	if result.Session == "" {
		return "", &UpstreamError{StatusCode: fasthttp.StatusInternalServerError, Details: raw}
	}
	return result.Session, nil
}
