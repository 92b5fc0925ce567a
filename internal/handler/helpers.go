package handler

import (
	"errors"
	"net/http"
	"reflect"

	"playpos/internal/apierror"
	"playpos/internal/poserr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps domain errors to HTTP status codes. Anything outside the
// domain taxonomy is an infrastructure failure: it is pushed onto c.Errors and
// the ErrorHandler middleware logs it and writes the single 500 envelope —
// exactly one body is ever written.
func respondError(c *gin.Context, err error) {
	var (
		notFound     *poserr.NotFoundError
		stock        *poserr.InsufficientStockError
		cardInUse    *poserr.CardInUseError
		invalidState *poserr.InvalidStateError
		mismatch     *poserr.TotalMismatchError
		configErr    *poserr.ConfigurationError
		badQty       *poserr.InvalidQuantityError
		sessionOpen  *poserr.SessionAlreadyOpenError
		noSession    *poserr.NoOpenSessionError
	)

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.As(err, &stock):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &cardInUse):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &invalidState):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &sessionOpen):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &noSession):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.As(err, &badQty):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.As(err, &configErr):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.As(err, &mismatch):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
	}
}
