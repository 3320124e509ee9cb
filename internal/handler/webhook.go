package handler

import (
	"encoding/xml"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wealthmastermind7-svg/AIEmployee/internal/apperr"
	"github.com/wealthmastermind7-svg/AIEmployee/internal/service"
)

const (
	noAgentGreeting = "Thank you for calling Work Mate AI. No agent is currently assigned to this number. Please try again later."
	callStartFailed = "An error occurred. Please try again later."
	notHeard        = "Sorry, I didn't catch that. Could you say it again?"
	voiceFailed     = "Sorry, I'm having trouble answering right now. Please call back later. Goodbye."
	voiceErrored    = "An error occurred. Goodbye."
)

// TwiML verbs the webhooks answer with.
type twiml struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []interface{}
}

type sayVerb struct {
	XMLName xml.Name `xml:"Say"`
	Text    string   `xml:",chardata"`
}

type gatherVerb struct {
	XMLName       xml.Name `xml:"Gather"`
	Input         string   `xml:"input,attr"`
	Action        string   `xml:"action,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr"`
}

type messageVerb struct {
	XMLName xml.Name `xml:"Message"`
	Text    string   `xml:",chardata"`
}

type hangupVerb struct {
	XMLName xml.Name `xml:"Hangup"`
}

func (h *Handler) writeTwiML(c *gin.Context, verbs ...interface{}) {
	body, err := xml.Marshal(twiml{Verbs: verbs})
	if err != nil {
		h.logger.Error("Failed to render TwiML", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", append([]byte(xml.Header), body...))
}

// gather listens for the caller's next utterance on conversationID.
func (h *Handler) gather(conversationID string) gatherVerb {
	q := url.Values{"conversationId": {conversationID}}
	return gatherVerb{
		Input:         "speech",
		Action:        h.publicURL + "/api/webhooks/voice/process?" + q.Encode(),
		SpeechTimeout: "auto",
	}
}

// SMSWebhook handles POST /api/webhooks/sms. The carrier always gets a
// well formed reply; failures are only logged.
func (h *Handler) SMSWebhook(c *gin.Context) {
	to, from, body := c.PostForm("To"), c.PostForm("From"), c.PostForm("Body")

	reply, err := h.svc.Webhooks.HandleSMS(c.Request.Context(), to, from, body)
	if err != nil {
		h.logger.Error("SMS webhook error", zap.String("to", to), zap.String("from", from), zap.Error(err))
		h.writeTwiML(c)
		return
	}
	if reply == "" {
		h.writeTwiML(c)
		return
	}
	h.writeTwiML(c, messageVerb{Text: reply})
}

// VoiceWebhook handles POST /api/webhooks/voice when a call comes in.
func (h *Handler) VoiceWebhook(c *gin.Context) {
	to, from := c.PostForm("To"), c.PostForm("From")
	h.logger.Info("Incoming call",
		zap.String("from", from),
		zap.String("to", to),
		zap.String("call_sid", c.PostForm("CallSid")))

	call, err := h.svc.Webhooks.StartCall(c.Request.Context(), to, from)
	if errors.Is(err, service.ErrNoAgent) {
		h.writeTwiML(c, sayVerb{Text: noAgentGreeting})
		return
	}
	if err != nil {
		h.logger.Error("Voice webhook error", zap.String("to", to), zap.Error(err))
		h.writeTwiML(c, sayVerb{Text: callStartFailed})
		return
	}

	h.writeTwiML(c, sayVerb{Text: call.Greeting}, h.gather(call.ConversationID))
}

// VoiceProcessWebhook handles POST /api/webhooks/voice/process with the
// transcribed SpeechResult of one caller turn.
func (h *Handler) VoiceProcessWebhook(c *gin.Context) {
	conversationID := c.Query("conversationId")
	speech := c.PostForm("SpeechResult")
	if conversationID == "" {
		h.writeTwiML(c, sayVerb{Text: voiceErrored}, hangupVerb{})
		return
	}
	if speech == "" {
		h.writeTwiML(c, sayVerb{Text: notHeard}, h.gather(conversationID))
		return
	}

	reply, err := h.svc.Webhooks.ProcessSpeech(c.Request.Context(), conversationID, speech)
	if err != nil {
		h.logger.Error("Voice process error", zap.String("conversation_id", conversationID), zap.Error(err))
		var genErr *apperr.GenerationError
		if errors.As(err, &genErr) {
			h.writeTwiML(c, sayVerb{Text: voiceFailed}, hangupVerb{})
			return
		}
		h.writeTwiML(c, sayVerb{Text: voiceErrored}, hangupVerb{})
		return
	}

	h.writeTwiML(c, sayVerb{Text: reply}, h.gather(conversationID))
}
