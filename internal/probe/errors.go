package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"proma/config/models"
	"proma/internal/utils"
)

// BodyExcerptLength is how much of an error body is echoed back
const BodyExcerptLength = 200

// ConnectionFailedPrefix starts the message of every network failure
const ConnectionFailedPrefix = "connection test failed: "

// ClassifyNetworkError maps a transport error to a failure kind and a short
// description. timeout is only used in the message.
func ClassifyNetworkError(err error, timeout time.Duration) (models.FailureKind, string) {
	if err == nil {
		return "", ""
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return models.FailureTimeout, fmt.Sprintf("request timed out after %s", timeout)
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return models.FailureDNS, fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name)
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return models.FailureConnectionRefused, "connection refused (server not listening on this port)"
	}

	var certErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) {
		return models.FailureTLS, "TLS certificate verification failed"
	}
	if errors.As(err, &recordErr) {
		return models.FailureTLS, "TLS handshake failed (server does not speak HTTPS)"
	}

	if errors.Is(err, context.Canceled) {
		return models.FailureNetwork, "request canceled"
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "connection refused"):
		return models.FailureConnectionRefused, "connection refused (server not listening on this port)"
	case strings.Contains(errStr, "no such host"):
		return models.FailureDNS, "DNS resolution failed (domain does not exist or network configuration error)"
	case strings.Contains(errStr, "network is unreachable"):
		return models.FailureNetwork, "network unreachable"
	case strings.Contains(errStr, "EOF"):
		return models.FailureNetwork, "connection closed unexpectedly"
	}

	return models.FailureNetwork, errStr
}

// NetworkFailure builds the result reported for a transport error
func NetworkFailure(err error, timeout time.Duration) models.TestResult {
	kind, desc := ClassifyNetworkError(err, timeout)
	return models.TestResult{
		Success: false,
		Kind:    kind,
		Message: ConnectionFailedPrefix + desc,
	}
}

// isCredentialRejected reports whether status means the key was refused
func isCredentialRejected(provider models.ProviderType, status int) bool {
	if provider == models.ProviderGoogle {
		return status == http.StatusBadRequest || status == http.StatusForbidden
	}
	return status == http.StatusUnauthorized
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// requestFailedMessage formats a non-success status with a body excerpt
func requestFailedMessage(status int, body []byte) string {
	return fmt.Sprintf("request failed (%d): %s", status, utils.Excerpt(string(body), BodyExcerptLength))
}

// ClassifyTestStatus turns the probe response into a result.
//
// Anthropic only fails on 401: any other status proves the endpoint is
// reachable, which is what the test reports.
func ClassifyTestStatus(provider models.ProviderType, status int, body []byte) models.TestResult {
	result := models.TestResult{StatusCode: status}

	if isCredentialRejected(provider, status) {
		result.Kind = models.FailureInvalidCredential
		result.Message = "invalid API key"
		return result
	}

	if provider == models.ProviderAnthropic {
		result.Success = true
		if status == http.StatusOK {
			result.Message = "connection successful"
		} else {
			result.Message = fmt.Sprintf("connection successful (endpoint reachable, HTTP %d)", status)
		}
		return result
	}

	if isSuccess(status) {
		result.Success = true
		result.Message = "connection successful"
		return result
	}

	result.Kind = models.FailureHTTP
	result.Message = requestFailedMessage(status, body)
	return result
}
