// Package schema builds the GraphQL schema and binds its fields to the services.
package schema

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"
	"github.com/sirupsen/logrus"

	"postboard/internal/domain"
	"postboard/internal/requestctx"
	"postboard/internal/service"
)

// ErrInternal replaces unexpected failures in responses; the cause is logged.
var ErrInternal = errors.New("internal server error")

type resolver struct {
	users service.UserService
	posts service.PostService
	log   logrus.FieldLogger
}

// New returns the executable schema.
func New(users service.UserService, posts service.PostService, log logrus.FieldLogger) (graphql.Schema, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &resolver{users: users, posts: posts, log: log}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"posts": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType))),
				Resolve: r.listPosts,
			},
			"post": &graphql.Field{
				Type: postType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.getPost,
			},
			"user": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.getUser,
			},
		},
	})

	credentialsArgs := graphql.FieldConfigArgument{
		"options": &graphql.ArgumentConfig{Type: graphql.NewNonNull(usernamePasswordInput)},
	}

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"register": &graphql.Field{
				Type:    graphql.NewNonNull(userResponseType),
				Args:    credentialsArgs,
				Resolve: r.register,
			},
			"login": &graphql.Field{
				Type:    graphql.NewNonNull(userResponseType),
				Args:    credentialsArgs,
				Resolve: r.login,
			},
			"createPost": &graphql.Field{
				Type: graphql.NewNonNull(postType),
				Args: graphql.FieldConfigArgument{
					"title": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: r.createPost,
			},
			"updatePost": &graphql.Field{
				Type: postType,
				Args: graphql.FieldConfigArgument{
					"id":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"title": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: r.updatePost,
			},
			"deletePost": &graphql.Field{
				Type: graphql.NewNonNull(graphql.Boolean),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: r.deletePost,
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

func (r *resolver) register(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.users.Register(p.Context, credentialsFromArgs(p.Args))
	return r.userResponse(p.Context, "register", user, err)
}

func (r *resolver) login(p graphql.ResolveParams) (interface{}, error) {
	user, err := r.users.Login(p.Context, credentialsFromArgs(p.Args))
	return r.userResponse(p.Context, "login", user, err)
}

func (r *resolver) getUser(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(int)
	user, err := r.users.GetByID(p.Context, int64(id))
	if err != nil {
		return nil, r.internal(p.Context, "user", err)
	}
	if user == nil {
		return nil, nil
	}
	return userToGraph(user), nil
}

func (r *resolver) listPosts(p graphql.ResolveParams) (interface{}, error) {
	posts, err := r.posts.ListPosts(p.Context)
	if err != nil {
		return nil, r.internal(p.Context, "posts", err)
	}
	out := make([]interface{}, len(posts))
	for i := range posts {
		out[i] = postToGraph(&posts[i])
	}
	return out, nil
}

func (r *resolver) getPost(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(int)
	post, err := r.posts.GetPost(p.Context, int64(id))
	if err != nil {
		return nil, r.internal(p.Context, "post", err)
	}
	if post == nil {
		return nil, nil
	}
	return postToGraph(post), nil
}

func (r *resolver) createPost(p graphql.ResolveParams) (interface{}, error) {
	title, _ := p.Args["title"].(string)
	post, err := r.posts.CreatePost(p.Context, title)
	if err != nil {
		return nil, r.internal(p.Context, "createPost", err)
	}
	return postToGraph(post), nil
}

func (r *resolver) updatePost(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(int)
	var title *string
	if v, ok := p.Args["title"].(string); ok {
		title = &v
	}
	post, err := r.posts.UpdatePost(p.Context, int64(id), title)
	if err != nil {
		return nil, r.internal(p.Context, "updatePost", err)
	}
	if post == nil {
		return nil, nil
	}
	return postToGraph(post), nil
}

func (r *resolver) deletePost(p graphql.ResolveParams) (interface{}, error) {
	id, _ := p.Args["id"].(int)
	ok, err := r.posts.DeletePost(p.Context, int64(id))
	if err != nil {
		return nil, r.internal(p.Context, "deletePost", err)
	}
	return ok, nil
}

func (r *resolver) userResponse(ctx context.Context, op string, user *domain.User, err error) (interface{}, error) {
	if err != nil {
		if fieldErr, ok := service.AsFieldError(err); ok {
			return userResponseToGraph(nil, fieldErr), nil
		}
		return nil, r.internal(ctx, op, err)
	}
	return userResponseToGraph(user, nil), nil
}

func (r *resolver) internal(ctx context.Context, op string, err error) error {
	r.log.WithFields(logrus.Fields{
		"request_id": requestctx.RequestID(ctx),
		"operation":  op,
	}).WithError(err).Error("graphql resolver failed")
	return ErrInternal
}
