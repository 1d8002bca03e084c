// utils/safelog.go
// ============================================================================
// SAFE LOGGING - Masque les données sensibles en production
// ============================================================================
// Ce module fournit des fonctions de logging qui masquent automatiquement
// les emails, montants et identifiants en environnement de production.
// ============================================================================

package utils

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

var (
	// IsProduction détermine si on est en mode production
	// En production, les données sensibles sont masquées
	IsProduction = os.Getenv("GIN_MODE") == "release" ||
		os.Getenv("ENVIRONMENT") == "production" ||
		os.Getenv("ENV") == "production"

	// LogLevel permet de filtrer les logs (DEBUG, INFO, WARN, ERROR)
	LogLevel = getLogLevel()
)

// Niveaux de log
const (
	LogLevelDebug = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func getLogLevel() int {
	level := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	switch level {
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// ============================================================================
// PATTERNS DE MASQUAGE
// ============================================================================

var (
	// Pattern pour emails
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	// Pattern pour montants avec devise
	amountWithCurrencyRegex = regexp.MustCompile(`\b\d+([.,]\d{1,2})?\s*(€|EUR|CHF|GBP|USD|£|\$)\b`)

	// Pattern pour UUIDs complets
	uuidRegex = regexp.MustCompile(`[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`)
)

// ============================================================================
// FONCTIONS DE MASQUAGE
// ============================================================================

// MaskString masque les données sensibles dans une chaîne
func MaskString(input string) string {
	if !IsProduction {
		return input
	}

	result := input

	// Masquer les emails
	result = emailRegex.ReplaceAllString(result, "***@***.***")

	// Masquer les montants avec devise
	result = amountWithCurrencyRegex.ReplaceAllString(result, "***€")

	// Masquer les UUIDs (raccourcir)
	result = maskUUIDs(result)

	return result
}

func maskUUIDs(input string) string {
	return uuidRegex.ReplaceAllStringFunc(input, func(uuid string) string {
		if len(uuid) > 8 {
			return uuid[:8] + "..."
		}
		return "***"
	})
}

// MaskAmount masque un montant financier
func MaskAmount(amount decimal.Decimal) string {
	if IsProduction {
		return "***"
	}
	return amount.StringFixed(2)
}

// MaskID masque partiellement un ID (garde les 8 premiers caractères)
func MaskID(id string) string {
	if !IsProduction {
		return id
	}
	if len(id) <= 8 {
		return "***"
	}
	return id[:8] + "..."
}

// MaskEmail masque un email
func MaskEmail(email string) string {
	if !IsProduction {
		return email
	}
	return "***@***.***"
}

// ============================================================================
// FONCTIONS DE LOGGING SÉCURISÉES
// ============================================================================

// SafeDebug log un message de debug (seulement si LOG_LEVEL=DEBUG)
func SafeDebug(format string, args ...interface{}) {
	if LogLevel > LogLevelDebug {
		return
	}
	message := fmt.Sprintf(format, args...)
	maskedMessage := MaskString(message)
	log.Printf("[DEBUG] %s", maskedMessage)
}

// SafeInfo log un message d'information
func SafeInfo(format string, args ...interface{}) {
	if LogLevel > LogLevelInfo {
		return
	}
	message := fmt.Sprintf(format, args...)
	maskedMessage := MaskString(message)
	log.Printf("[INFO] %s", maskedMessage)
}

// SafeWarn log un message d'avertissement
func SafeWarn(format string, args ...interface{}) {
	if LogLevel > LogLevelWarn {
		return
	}
	message := fmt.Sprintf(format, args...)
	maskedMessage := MaskString(message)
	log.Printf("[WARN] %s", maskedMessage)
}

// SafeError log un message d'erreur
func SafeError(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	maskedMessage := MaskString(message)
	log.Printf("[ERROR] %s", maskedMessage)
}

// ============================================================================
// FONCTIONS DE LOGGING MÉTIER SPÉCIFIQUES
// ============================================================================

// LogInvitationAction log une action sur une invitation sans exposer les IDs complets
func LogInvitationAction(action string, invitationID string, goalID string, userID string) {
	log.Printf("[Invitation] %s - Invitation: %s Goal: %s User: %s",
		action,
		MaskID(invitationID),
		MaskID(goalID),
		MaskID(userID))
}

// LogGoalAction log une action sur un objectif d'épargne
func LogGoalAction(action string, goalID string, userID string) {
	log.Printf("[Goal] %s - Goal: %s User: %s",
		action,
		MaskID(goalID),
		MaskID(userID))
}

// LogNotification log la création d'une notification (jamais son contenu)
func LogNotification(action string, notificationID string, userID string) {
	log.Printf("[Notification] %s - Notification: %s User: %s",
		action,
		MaskID(notificationID),
		MaskID(userID))
}

// LogAPIRequest log une requête API (sans données sensibles dans le body)
func LogAPIRequest(method string, path string, userID string, statusCode int, duration string) {
	if IsProduction {
		// En production, masquer les IDs dans les paths aussi
		path = maskUUIDs(path)
	}
	log.Printf("[API] %s %s - User: %s Status: %d Duration: %s",
		method,
		path,
		MaskID(userID),
		statusCode,
		duration)
}

// LogWebSocket log une action WebSocket (channel = "goal" ou "user")
func LogWebSocket(action string, channel string, id string) {
	log.Printf("[WS] %s - %s: %s", action, channel, MaskID(id))
}

// ============================================================================
// FONCTIONS UTILITAIRES
// ============================================================================

// GetEnvMode retourne le mode d'environnement actuel
func GetEnvMode() string {
	if IsProduction {
		return "production"
	}
	return "development"
}

// LogStartup log les informations de démarrage de l'application
func LogStartup(appName string, version string, port string) {
	log.Printf("🚀 %s v%s starting...", appName, version)
	log.Printf("   Mode: %s", GetEnvMode())
	log.Printf("   Port: %s", port)
	log.Printf("   Log Level: %d", LogLevel)
	if IsProduction {
		log.Printf("   ⚠️  Production mode: Sensitive data will be masked in logs")
	}
}