// Stagewatch - HTTP Security Event Detection and Classification
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stagewatch

package patterns

import (
	"strings"

	"github.com/tomtom215/stagewatch/internal/secevent"
)

// uaAllowlist names clients that never classify, checked before any
// denylist: search-engine crawlers, social preview bots, and API/testing
// clients operators run against their own deployments. Allowlist-first
// precedence keeps the operator's own tooling out of the alert stream.
var uaAllowlist = []string{
	"googlebot",
	"bingbot",
	"slurp",
	"duckduckbot",
	"baiduspider",
	"yandexbot",
	"applebot",
	"facebookexternalhit",
	"twitterbot",
	"linkedinbot",
	"slackbot",
	"telegrambot",
	"discordbot",
	"whatsapp",
	"postmanruntime",
	"insomnia",
	"uptimerobot",
	"pingdom",
	"statuscake",
	"prometheus",
}

// uaScannerList names security scanning and exploitation tooling.
var uaScannerList = []string{
	"sqlmap",
	"nikto",
	"nmap",
	"masscan",
	"metasploit",
	"nessus",
	"openvas",
	"acunetix",
	"burpsuite",
	"burp suite",
	"owasp zap",
	"zaproxy",
	"wpscan",
	"dirbuster",
	"gobuster",
	"dirb",
	"wfuzz",
	"hydra",
	"havij",
	"w3af",
}

// uaAutomationList names bare HTTP clients and generic automation tokens.
// Medium severity: automation against a web UI is worth a look, not a page.
var uaAutomationList = []string{
	"curl",
	"wget",
	"python-requests",
	"python-urllib",
	"go-http-client",
	"java/",
	"okhttp",
	"libwww-perl",
	"ruby",
	"scrapy",
	"httpclient",
	"headless",
	"phantomjs",
	"selenium",
	"puppeteer",
	"bot",
	"crawler",
	"spider",
	"scraper",
}

// UserAgentClassification is the outcome of classifying a User-Agent header.
// A nil classification means the header produced no event.
type UserAgentClassification struct {
	Category secevent.Category
	Severity secevent.Severity

	// MatchedToken is the denylist token that fired, empty for the
	// missing-header case.
	MatchedToken string
}

// ClassifyUserAgent maps a raw User-Agent header to a classification, or nil
// for ordinary traffic. Precedence is strict:
//
//  1. absent header on a health/readiness path: nil (probes are exempt)
//  2. absent header elsewhere: Low MissingUserAgent
//  3. allowlist match: nil, full stop, no denylist is consulted
//  4. security-tooling denylist match: High SecurityScannerUserAgent
//  5. generic-automation denylist match: Medium SuspiciousAutomationUserAgent
//  6. anything else: nil
func (r *Registry) ClassifyUserAgent(userAgent, requestPath string) *UserAgentClassification {
	if strings.TrimSpace(userAgent) == "" {
		if _, exempt := r.healthPaths[requestPath]; exempt {
			return nil
		}
		return &UserAgentClassification{
			Category: secevent.CategoryMissingUserAgent,
			Severity: secevent.SeverityLow,
		}
	}

	ua := strings.ToLower(userAgent)

	for _, token := range r.uaAllowlist {
		if strings.Contains(ua, token) {
			return nil
		}
	}

	for _, token := range r.uaScannerList {
		if strings.Contains(ua, token) {
			return &UserAgentClassification{
				Category:     secevent.CategorySecurityScannerUA,
				Severity:     secevent.SeverityHigh,
				MatchedToken: token,
			}
		}
	}

	for _, token := range r.uaAutomationList {
		if strings.Contains(ua, token) {
			return &UserAgentClassification{
				Category:     secevent.CategorySuspiciousAutomationUA,
				Severity:     secevent.SeverityMedium,
				MatchedToken: token,
			}
		}
	}

	return nil
}

// IsHealthPath reports whether the path is in the health/readiness
// exemption set.
func (r *Registry) IsHealthPath(path string) bool {
	_, ok := r.healthPaths[path]
	return ok
}
