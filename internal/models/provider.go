package models

import "strings"

// Provider is a mobile-money or bank channel a tenant can pay through
type Provider string

const (
	ProviderAirtel   Provider = "Airtel"
	ProviderTigo     Provider = "Tigo"
	ProviderHalopesa Provider = "Halopesa"
	ProviderAzampesa Provider = "Azampesa"
	ProviderMpesa    Provider = "Mpesa"
	ProviderCRDB     Provider = "CRDB"
	ProviderNMB      Provider = "NMB"
)

// Providers lists every supported channel in display order
var Providers = []Provider{
	ProviderAirtel, ProviderTigo, ProviderHalopesa, ProviderAzampesa,
	ProviderMpesa, ProviderCRDB, ProviderNMB,
}

func (p Provider) Valid() bool {
	switch p {
	case ProviderAirtel, ProviderTigo, ProviderHalopesa, ProviderAzampesa, ProviderMpesa:
		return true
	case ProviderCRDB, ProviderNMB:
		return true
	}
	return false
}

// Method maps the channel to the payment method recorded upstream
func (p Provider) Method() PaymentMethod {
	switch p {
	case ProviderCRDB, ProviderNMB:
		return MethodBank
	case ProviderAirtel, ProviderTigo, ProviderHalopesa, ProviderAzampesa, ProviderMpesa:
		return MethodMobileMoney
	}
	return MethodUnknown
}

// ParseProvider matches a provider name case-insensitively
func ParseProvider(s string) (Provider, bool) {
	s = strings.TrimSpace(s)
	for _, p := range Providers {
		if strings.EqualFold(string(p), s) {
			return p, true
		}
	}
	return "", false
}
