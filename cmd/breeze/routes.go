package main

import (
	"strings"

	"github.com/breezehq/breeze/internal/logger"
	"github.com/breezehq/breeze/pkg/apiclient"
	"github.com/breezehq/breeze/pkg/auth"
	"github.com/breezehq/breeze/pkg/config"
	"github.com/breezehq/breeze/pkg/httpd"
	"github.com/breezehq/breeze/pkg/mail"
	"github.com/breezehq/breeze/pkg/store/db"
	"github.com/breezehq/breeze/pkg/store/kv"
)

type routeDeps struct {
	kv     *kv.Store
	db     *db.Connector
	auth   *auth.Authenticator
	mailer *mail.Sender
	api    *apiclient.Client
	cfg    *config.Config
}

func registerRoutes(srv *httpd.Server, deps routeDeps) {
	srv.Get("/", func(_ *httpd.Request, res *httpd.Response) {
		res.JSON(`{"message":"Welcome to breeze"}`)
	})

	srv.Get("/healthz", deps.health)
	srv.Post("/users", deps.createUser)
	srv.Post("/token", deps.issueToken)
	srv.Delete("/token", deps.revokeToken)
	srv.Get("/whoami", deps.whoami)

	if deps.mailer != nil {
		srv.Post("/notify", deps.notify)
	}
}

func (d routeDeps) health(_ *httpd.Request, res *httpd.Response) {
	if err := d.kv.Health(); err != nil {
		logger.Error("Key-value store unhealthy: %v", err)
		res.Error(500, "key-value store unavailable")
		return
	}
	if err := d.db.Health(); err != nil {
		logger.Error("Database unhealthy: %v", err)
		res.Error(500, "database unavailable")
		return
	}
	res.Success(nil)
}

func (d routeDeps) createUser(req *httpd.Request, res *httpd.Response) {
	name := req.BodyParams["name"]
	password := req.BodyParams["password"]
	if name == "" || password == "" {
		res.Error(400, "name and password are required")
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		logger.Error("Hashing password for %s: %v", name, err)
		res.Error(500, "could not create user")
		return
	}

	if _, err := d.db.Exec("INSERT INTO users (name, password) VALUES (?, ?)", name, hash); err != nil {
		logger.Warn("Creating user %s: %v", name, err)
		res.Error(400, "user already exists")
		return
	}
	res.Success(map[string]string{"name": name}).Status(201)
}

func (d routeDeps) issueToken(req *httpd.Request, res *httpd.Response) {
	name := req.BodyParams["name"]
	password := req.BodyParams["password"]
	if name == "" || password == "" {
		res.Error(400, "name and password are required")
		return
	}

	rows, err := d.db.Query("SELECT password FROM users WHERE name = ?", name)
	if err != nil {
		logger.Error("Looking up user %s: %v", name, err)
		res.Error(500, "could not issue token")
		return
	}
	if len(rows) == 0 || !auth.CheckPassword(rows[0]["password"], password) {
		res.Error(400, "invalid credentials")
		return
	}

	token, err := d.auth.Generate(map[string]string{"sub": name})
	if err != nil {
		logger.Error("Generating token for %s: %v", name, err)
		res.Error(500, "could not issue token")
		return
	}
	if err := d.kv.SetTTL("token:"+token, name, d.cfg.Auth.TokenTTL); err != nil {
		logger.Error("Storing token for %s: %v", name, err)
		res.Error(500, "could not issue token")
		return
	}
	res.Success(map[string]string{"token": token})
}

func (d routeDeps) revokeToken(req *httpd.Request, res *httpd.Response) {
	token := bearerToken(req)
	if token == "" {
		res.Error(400, "missing bearer token")
		return
	}
	if err := d.kv.Delete("token:" + token); err != nil {
		logger.Error("Revoking token: %v", err)
		res.Error(500, "could not revoke token")
		return
	}
	res.Success(nil)
}

func (d routeDeps) whoami(req *httpd.Request, res *httpd.Response) {
	token := bearerToken(req)
	if token == "" {
		res.Error(400, "missing bearer token")
		return
	}

	// A revoked token fails here even while its signature is still valid.
	ok, err := d.kv.Exists("token:" + token)
	if err != nil {
		logger.Error("Checking token: %v", err)
		res.Error(500, "could not verify token")
		return
	}
	if !ok {
		res.Error(400, "token revoked or expired")
		return
	}

	claims, err := d.auth.Verify(token)
	if err != nil {
		res.Error(400, "invalid token")
		return
	}
	res.Success(claims)
}

func (d routeDeps) notify(req *httpd.Request, res *httpd.Response) {
	to := req.BodyParams["to"]
	subject := req.BodyParams["subject"]
	body := req.BodyParams["body"]
	if to == "" || subject == "" {
		res.Error(400, "to and subject are required")
		return
	}

	if err := d.mailer.Send(d.cfg.Mail.Username, []string{to}, subject, body); err != nil {
		logger.Error("Sending notification to %s: %v", to, err)
		res.Error(500, "could not send notification")
		return
	}
	res.Success(map[string]string{"to": to})
}

func bearerToken(req *httpd.Request) string {
	header := req.Header("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
