package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/C-Ford17/eventos-app-sub001/internal/auth"
	"github.com/C-Ford17/eventos-app-sub001/internal/gateway"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
)

// ErrCredencialesInvalidas is returned on a failed login attempt. It is
// deliberately the same for unknown email and wrong password.
var ErrCredencialesInvalidas = errors.New("invalid credentials")

// ErrCuentaBloqueada is returned when a blocked account tries to log in
var ErrCuentaBloqueada = errors.New("account is blocked")

// CuentaStore is the user persistence surface for account management
type CuentaStore interface {
	Create(ctx context.Context, usuario *models.Usuario) error
	GetByEmail(ctx context.Context, email string) (*models.Usuario, error)
}

// CredencialStore persists gateway OAuth credentials
type CredencialStore interface {
	Upsert(ctx context.Context, credencial *models.CredencialPasarela) error
	GetByUsuario(ctx context.Context, usuarioID uuid.UUID) (*models.CredencialPasarela, error)
}

// CodeExchanger exchanges an OAuth authorization code for tokens
type CodeExchanger interface {
	ExchangeCode(ctx context.Context, code string) (*gateway.TokenResponse, error)
}

// AccountService handles registration, login and gateway account linking
type AccountService struct {
	usuarioRepo    CuentaStore
	credencialRepo CredencialStore
	gw             CodeExchanger
	cipher         *gateway.TokenCipher
	jwtSecret      string
	tokenTTL       time.Duration
	now            func() time.Time
}

func NewAccountService(
	usuarioRepo CuentaStore,
	credencialRepo CredencialStore,
	gw CodeExchanger,
	cipher *gateway.TokenCipher,
	jwtSecret string,
	tokenTTL time.Duration,
) *AccountService {
	return &AccountService{
		usuarioRepo:    usuarioRepo,
		credencialRepo: credencialRepo,
		gw:             gw,
		cipher:         cipher,
		jwtSecret:      jwtSecret,
		tokenTTL:       tokenTTL,
		now:            time.Now,
	}
}

// Registrar creates a new account with a hashed password
func (s *AccountService) Registrar(ctx context.Context, nombre, email, password, rol string) (*models.Usuario, error) {
	switch rol {
	case models.RolAsistente, models.RolOrganizador, models.RolProveedor:
	default:
		// staff and admin accounts are provisioned out of band
		rol = models.RolAsistente
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	usuario := &models.Usuario{
		ID:           uuid.New(),
		Nombre:       nombre,
		Email:        email,
		PasswordHash: hashed,
		Rol:          rol,
	}
	if err := s.usuarioRepo.Create(ctx, usuario); err != nil {
		return nil, err
	}

	log.Info().Str("usuario_id", usuario.ID.String()).Str("rol", usuario.Rol).Msg("account registered")
	return usuario, nil
}

// Login verifies credentials and returns a signed access token
func (s *AccountService) Login(ctx context.Context, email, password string) (string, *models.Usuario, error) {
	usuario, err := s.usuarioRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrCredencialesInvalidas
		}
		return "", nil, err
	}

	if !auth.CheckPassword(usuario.PasswordHash, password) {
		return "", nil, ErrCredencialesInvalidas
	}
	if usuario.Bloqueado {
		return "", nil, ErrCuentaBloqueada
	}

	token, err := auth.GenerateToken(s.jwtSecret, usuario.ID, usuario.Rol, s.tokenTTL)
	if err != nil {
		return "", nil, err
	}
	return token, usuario, nil
}

// VincularPasarela exchanges an OAuth authorization code and stores the
// resulting tokens encrypted for the organizer.
func (s *AccountService) VincularPasarela(ctx context.Context, usuarioID uuid.UUID, code string) error {
	tokens, err := s.gw.ExchangeCode(ctx, code)
	if err != nil {
		return errors.Wrap(err, "failed to exchange authorization code")
	}

	accessEnc, err := s.cipher.Encrypt(tokens.AccessToken)
	if err != nil {
		return errors.Wrap(err, "failed to encrypt access token")
	}

	credencial := &models.CredencialPasarela{
		ID:          uuid.New(),
		UsuarioID:   usuarioID,
		AccessToken: accessEnc,
	}
	if tokens.RefreshToken != "" {
		refreshEnc, err := s.cipher.Encrypt(tokens.RefreshToken)
		if err != nil {
			return errors.Wrap(err, "failed to encrypt refresh token")
		}
		credencial.RefreshToken = refreshEnc
	}
	if tokens.ExpiresIn > 0 {
		expira := s.now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
		credencial.ExpiraAt = &expira
	}

	if err := s.credencialRepo.Upsert(ctx, credencial); err != nil {
		return err
	}

	log.Info().Str("usuario_id", usuarioID.String()).Msg("gateway account linked")
	return nil
}
