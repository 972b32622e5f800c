package schema

import (
	"time"

	"github.com/graphql-go/graphql"

	"postboard/internal/domain"
	"postboard/internal/service"
)

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"username":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var postType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Post",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"title":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var fieldErrorType = graphql.NewObject(graphql.ObjectConfig{
	Name: "FieldError",
	Fields: graphql.Fields{
		"field":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"message": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var userResponseType = graphql.NewObject(graphql.ObjectConfig{
	Name: "UserResponse",
	Fields: graphql.Fields{
		"errors": &graphql.Field{Type: graphql.NewList(graphql.NewNonNull(fieldErrorType))},
		"user":   &graphql.Field{Type: userType},
	},
})

var usernamePasswordInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "UsernamePasswordInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"username": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

// The wire shapes below are plain maps so that absent keys resolve to null.
// PasswordHash is never copied out of domain.User.

func userToGraph(u *domain.User) map[string]interface{} {
	if u == nil {
		return nil
	}
	return map[string]interface{}{
		"id":        int(u.ID),
		"createdAt": formatTime(u.CreatedAt),
		"updatedAt": formatTime(u.UpdatedAt),
		"username":  u.Username,
	}
}

func postToGraph(p *domain.Post) map[string]interface{} {
	if p == nil {
		return nil
	}
	return map[string]interface{}{
		"id":        int(p.ID),
		"createdAt": formatTime(p.CreatedAt),
		"updatedAt": formatTime(p.UpdatedAt),
		"title":     p.Title,
	}
}

func userResponseToGraph(user *domain.User, fieldErr *service.FieldError) map[string]interface{} {
	if fieldErr != nil {
		return map[string]interface{}{
			"errors": []interface{}{
				map[string]interface{}{"field": fieldErr.Field, "message": fieldErr.Message},
			},
		}
	}
	resp := map[string]interface{}{}
	if user != nil {
		resp["user"] = userToGraph(user)
	}
	return resp
}

func credentialsFromArgs(args map[string]interface{}) service.Credentials {
	options, _ := args["options"].(map[string]interface{})
	username, _ := options["username"].(string)
	password, _ := options["password"].(string)
	return service.Credentials{Username: username, Password: password}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
