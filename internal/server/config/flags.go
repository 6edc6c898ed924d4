package config

import (
	"flag"
	"strings"
	"time"

	"github.com/dmitrijs2005/impacthands/internal/flagx"
)

var serverFlags = []string{
	"-a", "-m", "-d", "-r", "-s", "-t", "-f", "-o", "-n", "-w",
	"-h", "-P", "-U", "-W", "-F",
	"-u", "-p", "-b", "-g", "-e", "-l",
	"-S", "-R",
}

// parseFlags overlays command-line flags onto config.
//
//	-a string   API listen address (":8080")
//	-m string   metrics listen address (":9090")
//	-d string   PostgreSQL DSN
//	-r string   Redis URL
//	-s string   JWT HMAC secret
//	-t int      access token validity, minutes
//	-f int      refresh token validity, minutes
//	-o int      one-time code validity, minutes
//	-n int      one-time code max verification attempts
//	-w int      resend window, seconds
//	-h/-P/-U/-W/-F  SMTP host, port, user, password, from
//	-u/-p/-b/-g/-e  S3 user, password, bucket, region, endpoint
//	-l string   public base URL used to build avatar links
//	-S string   site URL code emails link back to
//	-R string   comma-separated extra redirect URLs allowed in code emails
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "API listen address")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics listen address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (minutes)")
	refreshMinutes := fs.Int("f", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (minutes)")
	otpMinutes := fs.Int("o", int(config.OTPValidityDuration.Minutes()), "one-time code validity (minutes)")
	fs.IntVar(&config.OTPMaxAttempts, "n", config.OTPMaxAttempts, "one-time code max attempts")
	resendSeconds := fs.Int("w", int(config.OTPResendWindow.Seconds()), "resend window (seconds)")

	fs.StringVar(&config.SMTPHost, "h", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "P", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUser, "U", config.SMTPUser, "SMTP user")
	fs.StringVar(&config.SMTPPassword, "W", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.SMTPFrom, "F", config.SMTPFrom, "SMTP from address")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.PublicBaseURL, "l", config.PublicBaseURL, "public base URL")
	fs.StringVar(&config.SiteURL, "S", config.SiteURL, "site URL")
	redirects := fs.String("R", strings.Join(config.RedirectAllowList, ","), "allowed redirect URLs, comma-separated")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
	config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
	config.OTPValidityDuration = time.Duration(*otpMinutes) * time.Minute
	config.OTPResendWindow = time.Duration(*resendSeconds) * time.Second
	config.RedirectAllowList = splitList(*redirects)
}

// splitList splits a comma-separated flag value, dropping blank entries.
// An empty value yields nil.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
