// Package mailer delivers rendered report documents by email.
//
// Exactly one transport provider is active at a time, selected by
// configuration through NewProvider: SendGrid and Mailgun speak HTTP
// APIs, the relay provider speaks authenticated SMTP. All three sit
// behind the Provider interface; there is no cross-provider fallback at
// runtime. A failed delivery surfaces to the caller as a typed
// DeliveryError and is never silently retried elsewhere.
package mailer
