package mailer

import (
	"fmt"
	"time"
)

// WelcomeEmail greets a newly registered user.
func WelcomeEmail(to, name string) Email {
	return Email{
		To:      to,
		Subject: "Welcome to Authflow",
		Body: fmt.Sprintf("Hello %s,\n\nYour account has been created with email id: %s.\n"+
			"Verify your email address from your account page to unlock every feature.\n", name, to),
	}
}

// VerifyOTPEmail carries an account verification code.
func VerifyOTPEmail(to, otp string, validFor time.Duration) Email {
	return Email{
		To:      to,
		Subject: "Account Verification OTP",
		Body: fmt.Sprintf("Your OTP is %s. Verify your account using this OTP.\n"+
			"The code is valid for %s.\n", otp, humanDuration(validFor)),
	}
}

// ResetOTPEmail carries a password reset code.
func ResetOTPEmail(to, otp string, validFor time.Duration) Email {
	return Email{
		To:      to,
		Subject: "Password Reset OTP",
		Body: fmt.Sprintf("Your OTP for resetting your password is %s.\n"+
			"Use this OTP to proceed with resetting your password. It is valid for %s.\n", otp, humanDuration(validFor)),
	}
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	case d >= time.Minute && d%time.Minute == 0:
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", m)
	default:
		return d.String()
	}
}
