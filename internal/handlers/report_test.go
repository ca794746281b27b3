package handlers

import (
	"testing"

	"maraude-bknd/internal/validate"
)

func TestSendReportEmailRecipientValidation(t *testing.T) {
	cases := []struct {
		name string
		req  sendReportEmailReq
		ok   bool
	}{
		{"one recipient", sendReportEmailReq{Recipients: []string{"coord@asso.org"}}, true},
		{"several recipients", sendReportEmailReq{Recipients: []string{"a@asso.org", "b@asso.org"}, Subject: "Rapport"}, true},
		{"no recipients", sendReportEmailReq{}, false},
		{"empty list", sendReportEmailReq{Recipients: []string{}}, false},
		{"bad address", sendReportEmailReq{Recipients: []string{"not-an-email"}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validate.Struct(tc.req)
			if tc.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
