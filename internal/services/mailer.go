package services

import (
	"log"
	"strconv"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendVerificationCode(email, code string) error
	SendMessage(email, subject, body string) error
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(host, port, username, password string) *SMTPMailer {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		portNum = 587
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, portNum, username, password),
		from:   username,
	}
}

func (m *SMTPMailer) SendVerificationCode(email, code string) error {
	return m.SendMessage(email, "Подтверждение email", "Ваш временный пароль: "+code)
}

func (m *SMTPMailer) SendMessage(email, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		log.Println("Ошибка при отправке email:", err)
		return err
	}
	return nil
}
