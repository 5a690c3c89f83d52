package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/jhoicas/stock-ledger/pkg/config"
)

// Open abre el libro en PostgreSQL: database/sql con driver pgx (para sqlx), decimal de
// shopspring registrado en cada conexión y dial forzado a IPv4 cuando el host lo permite.
func Open(ctx context.Context, cfg config.DBConfig) (*sqlx.DB, error) {
	connConfig, err := pgx.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	connConfig.DialFunc = newIPv4Dialer().DialContext

	db := stdlib.OpenDB(*connConfig, stdlib.OptionAfterConnect(func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}))

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 25
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(min(maxConns, 5))
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}
	return sqlx.NewDb(db, "pgx"), nil
}

// ReadOnlyTx opciones de la transacción de conciliación: una sola instantánea.
var ReadOnlyTx = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}

var errNoIPv4 = errors.New("sin dirección IPv4")

// lookupFunc resuelve direcciones IPv4 de un host.
type lookupFunc func(ctx context.Context, host string) ([]net.IP, error)

// ipv4Dialer prueba los resolvers en orden y conecta por tcp4; si ninguno da IPv4 usa la dirección original.
// En contenedores sin IPv6 el DNS interno a veces solo devuelve AAAA.
type ipv4Dialer struct {
	lookups []lookupFunc
	dialer  net.Dialer
}

func newIPv4Dialer() *ipv4Dialer {
	public := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "udp", "8.8.8.8:53")
		},
	}
	return &ipv4Dialer{lookups: []lookupFunc{
		func(ctx context.Context, host string) ([]net.IP, error) {
			return net.DefaultResolver.LookupIP(ctx, "ip4", host)
		},
		func(ctx context.Context, host string) ([]net.IP, error) {
			return public.LookupIP(ctx, "ip4", host)
		},
	}}
}

func (d *ipv4Dialer) resolve(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host, nil
		}
		return "", errNoIPv4
	}
	for _, lookup := range d.lookups {
		ips, err := lookup(ctx, host)
		if err != nil {
			continue
		}
		for _, ip := range ips {
			if ip.To4() != nil {
				return ip.String(), nil
			}
		}
	}
	return "", errNoIPv4
}

// DialContext firma compatible con pgconn.DialFunc.
func (d *ipv4Dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ip, err := d.resolve(ctx, host)
	if err != nil {
		return d.dialer.DialContext(ctx, network, addr)
	}
	return d.dialer.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
}
