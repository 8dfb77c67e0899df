package vtmiddleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Clé de contexte gin portant l'identifiant visiteur de la requête
const VisitorKey = "visitor_id"

const visitorCookie = "_visitor_id"

// VisitorCookie garantit que chaque navigateur porte un cookie
// `_visitor_id` stable. Le front peut envoyer son propre identifiant
// dans le corps des requêtes ; ce cookie sert de valeur de repli
func VisitorCookie(production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		visitorID, err := c.Cookie(visitorCookie)

		if err != nil || visitorID == "" {
			// Pas de cookie disponible : générer un nouvel ID
			visitorID = uuid.NewString()

			// Essayer de définir le cookie (peut échouer si désactivés)
			c.SetCookie(
				visitorCookie,
				visitorID,
				365*24*60*60*2, // 2 ans
				"/",
				"",
				production, // secure (true si HTTPS)
				true,       // httpOnly
			)
		}

		c.Set(VisitorKey, visitorID)
		c.Next()
	}
}

// Visitor retourne l'identifiant visiteur posé par le middleware
func Visitor(c *gin.Context) string {
	id, _ := c.Get(VisitorKey)
	if s, ok := id.(string); ok {
		return s
	}
	return ""
}
