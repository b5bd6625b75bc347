package session

import (
	"errors"

	"github.com/and161185/dittokanban/internal/errs"
)

// User-facing messages.
const (
	MsgInvalidCredentials = "Email ou senha incorretos"
	MsgAlreadyRegistered  = "Este email já está cadastrado"
	MsgWeakPassword       = "A senha deve ter pelo menos 6 caracteres"
	MsgInvalidEmail       = "Email inválido"
	MsgUnexpected         = "Ocorreu um erro inesperado"
	MsgInitFailed         = "Erro ao inicializar autenticação"
)

var translations = map[string]string{
	errs.MsgInvalidCredentials: MsgInvalidCredentials,
	errs.MsgAlreadyRegistered:  MsgAlreadyRegistered,
	errs.MsgWeakPassword:       MsgWeakPassword,
	errs.MsgInvalidEmail:       MsgInvalidEmail,
}

// MessageFor maps an identity service failure to the message shown to the user.
// Known provider messages are translated, other messages pass through verbatim,
// and a failure without any message becomes MsgUnexpected.
func MessageFor(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var pe *ProviderError
	if errors.As(err, &pe) {
		msg = pe.Message
	}
	if msg == "" {
		return MsgUnexpected
	}
	if t, ok := translations[msg]; ok {
		return t
	}
	return msg
}
