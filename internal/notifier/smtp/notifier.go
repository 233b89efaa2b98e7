// Package smtpnotifier delivers summary reports and personal notices over
// authenticated SMTP submission.
package smtpnotifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/sigeo-niteroi/dowatch/internal/gazette"
)

// summarySubject mirrors the report subject used by the gazette watcher
// since its first deployment.
const summarySubject = "Busca por dados no DO retornou resultados"

// Config controls the SMTP relay session and message addressing.
type Config struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Sender     string
	Operations string
	Timeout    time.Duration
}

// sender performs one scoped delivery: acquire the transport session,
// authenticate, send, release. Abstracted so tests can fake the relay.
type sender interface {
	Send(ctx context.Context, job gazette.NotificationJob) error
}

// Notifier implements gazette.Notifier over an SMTP relay.
type Notifier struct {
	cfg    Config
	relay  sender
	logger *zap.Logger
}

// New builds a Notifier submitting through cfg.Host with STARTTLS.
func New(cfg Config, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Notifier{cfg: cfg, relay: &mailSender{cfg: cfg}, logger: logger}
}

// SendSummary delivers the per-term report to the operations recipient.
func (n *Notifier) SendSummary(ctx context.Context, ref gazette.PublicationReference, results []gazette.MatchResult) gazette.DeliveryOutcome {
	job := gazette.NotificationJob{
		Kind:       gazette.KindSummary,
		Recipients: []string{n.cfg.Operations},
		Subject:    summarySubject,
		Body:       summaryBody(ref, results),
	}

	err := n.relay.Send(ctx, job)
	if err != nil {
		n.logger.Error("summary delivery failed",
			zap.String("recipient", n.cfg.Operations),
			zap.Error(err),
		)
	} else {
		n.logger.Info("summary delivered", zap.String("recipient", n.cfg.Operations))
	}
	return gazette.DeliveryOutcome{Recipient: n.cfg.Operations, Kind: gazette.KindSummary, Err: err}
}

// SendPersonalNotices delivers one notice per matched directory entry, with
// the operations address copied. A failed delivery is recorded and the
// remaining entries are still attempted. No-op outside directory mode.
func (n *Notifier) SendPersonalNotices(ctx context.Context, ref gazette.PublicationReference, results []gazette.MatchResult, registry gazette.TermRegistry) []gazette.DeliveryOutcome {
	if registry.Mode() != gazette.Directory {
		return nil
	}

	var outcomes []gazette.DeliveryOutcome
	for _, result := range results {
		if !result.Found {
			continue
		}
		address, ok := registry.AddressFor(result.Term)
		if !ok {
			n.logger.Warn("matched entry has no address", zap.String("name", result.Term))
			continue
		}

		job := gazette.NotificationJob{
			Kind:       gazette.KindPersonal,
			Recipients: []string{address},
			CC:         n.cfg.Operations,
			Subject:    fmt.Sprintf("Diário Oficial de %s: seu nome foi publicado", ref.Date()),
			Body:       personalBody(ref, result.Term),
		}

		err := n.relay.Send(ctx, job)
		if err != nil {
			n.logger.Error("personal notice delivery failed",
				zap.String("name", result.Term),
				zap.String("recipient", address),
				zap.Error(err),
			)
		} else {
			n.logger.Info("personal notice delivered",
				zap.String("name", result.Term),
				zap.String("recipient", address),
			)
		}
		outcomes = append(outcomes, gazette.DeliveryOutcome{
			Recipient: address,
			Kind:      gazette.KindPersonal,
			Err:       err,
		})
	}
	return outcomes
}

func summaryBody(ref gazette.PublicationReference, results []gazette.MatchResult) string {
	var sb strings.Builder
	sb.WriteString("Relatório de Pesquisa no Diário Oficial\n")
	sb.WriteString("URL: " + ref.URL + "\n\n")
	for _, r := range results {
		if r.Found {
			sb.WriteString(fmt.Sprintf("O dado '%s' foi encontrado no PDF.\n", r.Term))
		} else {
			sb.WriteString(fmt.Sprintf("O dado '%s' NÃO foi encontrado no PDF.\n", r.Term))
		}
	}
	return sb.String()
}

func personalBody(ref gazette.PublicationReference, name string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Olá %s,\n\n", name))
	sb.WriteString(fmt.Sprintf("O seu nome foi encontrado no Diário Oficial de %s.\n", ref.Date()))
	sb.WriteString("Confira a publicação em: " + ref.URL + "\n\n")
	sb.WriteString("Esta é uma notificação automática do dowatch.\n")
	return sb.String()
}

// mailSender is the real relay. Every Send dials, authenticates, submits
// and closes the connection; DialAndSendWithContext guarantees the session
// is released on all exit paths.
type mailSender struct {
	cfg Config
}

func (s *mailSender) Send(ctx context.Context, job gazette.NotificationJob) error {
	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTimeout(s.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("build smtp client: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.Sender); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(job.Recipients...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	if job.CC != "" {
		if err := msg.Cc(job.CC); err != nil {
			return fmt.Errorf("set cc: %w", err)
		}
	}
	msg.Subject(job.Subject)
	msg.SetBodyString(mail.TypeTextPlain, job.Body)

	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(sendCtx, msg); err != nil {
		return fmt.Errorf("dial and send: %w", err)
	}
	return nil
}
