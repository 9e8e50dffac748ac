package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/shopflow-app/shopflow-backend/pkg/errors"
)

type vehiclePayload struct {
	VIN   string `json:"vin" validate:"required,vin"`
	Phone string `json:"phone" validate:"omitempty,e164_us"`
}

func decode(t *testing.T, body string) error {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	var payload vehiclePayload
	return DecodeJSONBody(req, &payload)
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	err := decode(t, `{"vin":"1HGCM82633A004352","phone":"+15125550134"}`)
	require.NoError(t, err)
}

func TestVINRuleRejectsForbiddenLetters(t *testing.T) {
	// I, O and Q are not legal VIN characters.
	err := decode(t, `{"vin":"1HGCM82633A00435O"}`)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	err = decode(t, `{"vin":"1HGCM82633A"}`)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}

func TestUSPhoneRule(t *testing.T) {
	for _, bad := range []string{"+4415125550134", "5125550134", "+1512555013"} {
		err := decode(t, `{"vin":"1HGCM82633A004352","phone":"`+bad+`"}`)
		var appErr *pkgerrors.Error
		require.ErrorAs(t, err, &appErr, "phone %q", bad)
		assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	err := decode(t, `{"vin":"1HGCM82633A004352","bogus":true}`)
	var appErr *pkgerrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
