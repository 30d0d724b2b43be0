package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/hanapark/hanapark/internal/booking/domain"
	paymentdomain "github.com/hanapark/hanapark/internal/payment/domain"
	spotdomain "github.com/hanapark/hanapark/internal/spot/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case errors.Is(err, bookingdomain.ErrBookingConflict):
		return http.StatusConflict, errorPayload{Type: "booking_conflict", Message: "requested interval overlaps an existing booking"}
	case errors.Is(err, paymentdomain.ErrPaymentExists):
		return http.StatusConflict, errorPayload{Type: "payment_exists", Message: "a payment already exists for this booking"}
	case errors.Is(err, spotdomain.ErrSlugTaken):
		return http.StatusConflict, errorPayload{Type: "conflict", Message: "spot slug already in use"}

	case errors.Is(err, bookingdomain.ErrInvalidStateTransition):
		return http.StatusUnprocessableEntity, errorPayload{Type: "invalid_state_transition", Message: "booking state does not allow this operation"}
	case errors.Is(err, bookingdomain.ErrSpotNotBookable),
		errors.Is(err, bookingdomain.ErrOwnSpotBooking),
		errors.Is(err, paymentdomain.ErrBookingNotPayable),
		errors.Is(err, spotdomain.ErrInvalidApproval):
		return http.StatusUnprocessableEntity, errorPayload{Type: "unprocessable", Message: err.Error()}

	case errors.Is(err, bookingdomain.ErrNotRequester):
		return http.StatusForbidden, errorPayload{Type: "forbidden", Message: "forbidden"}

	case errors.Is(err, bookingdomain.ErrBookingNotFound),
		errors.Is(err, spotdomain.ErrSpotNotFound),
		errors.Is(err, paymentdomain.ErrPaymentNotFound):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: "not found"}

	case errors.Is(err, paymentdomain.ErrPollTimeout):
		return http.StatusGatewayTimeout, errorPayload{Type: "poll_timeout", Message: "payment still pending after polling"}
	case errors.Is(err, paymentdomain.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, errorPayload{Type: "gateway_unavailable", Message: "payment gateway unavailable"}

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, bookingdomain.ErrInvalidInterval),
		errors.Is(err, bookingdomain.ErrStartInPast),
		errors.Is(err, bookingdomain.ErrInvalidBooking),
		errors.Is(err, bookingdomain.ErrInvalidRequester),
		errors.Is(err, bookingdomain.ErrInvalidSpot),
		errors.Is(err, paymentdomain.ErrInvalidReference),
		errors.Is(err, spotdomain.ErrInvalidOwner),
		errors.Is(err, spotdomain.ErrInvalidName),
		errors.Is(err, spotdomain.ErrInvalidPrice),
		errors.Is(err, spotdomain.ErrInvalidSpot):
		return http.StatusBadRequest, errorPayload{Type: "invalid_request", Message: err.Error()}
	}

	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
}
