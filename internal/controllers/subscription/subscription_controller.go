package subscription

import (
	"context"
	"errors"
	"strings"

	"github.com/DIMO-Network/server-garage/pkg/richerrors"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/thinkercafe-tw/thinker-news-linebot/internal/clients/supabase"
)

const (
	msgSubscribed        = "🎉 訂閱成功！感謝您對學習洞察的興趣"
	msgAlreadySubscribed = "📧 此電子郵件已經訂閱了洞察更新"
	msgFailed            = "訂閱過程發生錯誤，請稍後再試"
	msgUnavailable       = "訂閱服務尚未設定"
	msgInvalidEmail      = "請輸入有效的電子郵件地址"
	msgInvalidRequest    = "訂閱資料格式錯誤"

	CodeAlreadySubscribed = "already_subscribed"
	CodeInvalidRequest    = "invalid_request"
	CodeUnavailable       = "unavailable"
	CodeUpstreamError     = "upstream_error"
)

// Subscriber stores a new e-mail subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, email string, name string, interests []string) (*supabase.InsightRow, error)
}

// Request is the body posted by the website subscription form.
type Request struct {
	Email     string   `json:"email" validate:"required,email"`
	Name      string   `json:"name" validate:"max=100"`
	Interests []string `json:"interests" validate:"max=10,dive,max=100"`
}

// Response is returned for every subscription request.
type Response struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// Controller relays website subscriptions to the insights store.
type Controller struct {
	subscriber Subscriber
	validate   *validator.Validate
}

// NewController creates a new Controller. A nil subscriber disables the endpoint.
func NewController(subscriber Subscriber) *Controller {
	return &Controller{
		subscriber: subscriber,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Subscribe godoc
// @Summary      Subscribe an e-mail address to insight updates
// @Accept       json
// @Produce      json
// @Param        request  body      subscription.Request  true  "Subscriber"
// @Success      201      {object}  subscription.Response
// @Failure      400      {object}  subscription.Response
// @Failure      409      {object}  subscription.Response
// @Failure      502      {object}  subscription.Response
// @Failure      503      {object}  subscription.Response
// @Router       /v1/subscriptions [post]
func (s *Controller) Subscribe(c *fiber.Ctx) error {
	if s.subscriber == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(Response{Code: CodeUnavailable, Message: msgUnavailable})
	}

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(Response{Code: CodeInvalidRequest, Message: msgInvalidRequest})
	}
	req.normalize()
	if err := s.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(Response{Code: CodeInvalidRequest, Message: validationMessage(err)})
	}

	ctx := c.UserContext()
	logger := zerolog.Ctx(ctx).With().Str("email", req.Email).Logger()

	_, err := s.subscriber.Subscribe(ctx, req.Email, req.Name, req.Interests)
	if err == nil {
		logger.Info().Int("interests", len(req.Interests)).Msg("New subscription")
		return c.Status(fiber.StatusCreated).JSON(Response{Success: true, Message: msgSubscribed})
	}

	if errors.Is(err, supabase.ErrAlreadySubscribed) {
		return c.Status(fiber.StatusConflict).JSON(Response{Code: CodeAlreadySubscribed, Message: msgAlreadySubscribed})
	}

	logger.Error().Err(err).Msg("Failed to store subscription")
	status, msg := fiber.StatusBadGateway, msgFailed
	if richErr, ok := richerrors.AsRichError(err); ok {
		if richErr.Code != 0 {
			status = richErr.Code
		}
		if richErr.ExternalMsg != "" {
			msg = richErr.ExternalMsg
		}
	}
	return c.Status(status).JSON(Response{Code: CodeUpstreamError, Message: msg})
}

func (r *Request) normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	interests := r.Interests[:0]
	for _, interest := range r.Interests {
		if interest = strings.TrimSpace(interest); interest != "" {
			interests = append(interests, interest)
		}
	}
	r.Interests = interests
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].Field() {
		case "Email":
			return msgInvalidEmail
		case "Name":
			return "名稱不可超過 100 個字"
		case "Interests":
			return "最多只能選擇 10 個主題"
		}
	}
	return msgInvalidRequest
}
