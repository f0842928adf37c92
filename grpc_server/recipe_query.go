package grpcserver

import (
	"context"
	"errors"
	"recipe-api/interceptors"
	"recipe-api/models"
	"recipe-api/repositories"
	"recipe-api/services"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	RecipeQueryService = "recipe.RecipeQuery"

	ListRecipesMethod = "/" + RecipeQueryService + "/ListRecipes"
	GetRecipeMethod   = "/" + RecipeQueryService + "/GetRecipe"
)

// RecipeQueryServer is the read-only recipe API served over gRPC. Messages are
// google.protobuf.Struct so clients need no generated stubs.
//
//	ListRecipes {tags?: "1,2", ingredients?: "3"} -> {recipes: [...]}
//	GetRecipe   {id: 7}                           -> {recipe}
type RecipeQueryServer interface {
	ListRecipes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRecipe(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type recipeQueryServer struct {
	recipeService services.RecipeService
}

func NewRecipeQueryServer(recipeService services.RecipeService) RecipeQueryServer {
	return &recipeQueryServer{recipeService: recipeService}
}

// RegisterRecipeQueryServer registers srv on s.
func RegisterRecipeQueryServer(s grpc.ServiceRegistrar, srv RecipeQueryServer) {
	s.RegisterService(&recipeQueryServiceDesc, srv)
}

func (s *recipeQueryServer) recipeToMap(r *models.Recipe, detail bool) map[string]interface{} {
	m := map[string]interface{}{
		"id":           r.ID,
		"title":        r.Title,
		"time_minutes": r.TimeMinutes,
		"price":        r.Price,
		"link":         r.Link,
		"image":        s.recipeService.ImageURL(r),
	}
	tags := make([]interface{}, len(r.Tags))
	for i, t := range r.Tags {
		if detail {
			tags[i] = map[string]interface{}{"id": t.ID, "name": t.Name}
		} else {
			tags[i] = t.ID
		}
	}
	ingredients := make([]interface{}, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		if detail {
			ingredients[i] = map[string]interface{}{"id": ing.ID, "name": ing.Name}
		} else {
			ingredients[i] = ing.ID
		}
	}
	m["tags"] = tags
	m["ingredients"] = ingredients
	return m
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, services.ErrInvalidFilter):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Errorf(codes.Internal, "internal error: %v", err)
	}
}

func requestUser(ctx context.Context) (*models.User, error) {
	user, ok := interceptors.UserFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "cannot identify requesting user")
	}
	return user, nil
}

func stringField(req *structpb.Struct, name string) string {
	if v, ok := req.GetFields()[name]; ok {
		return v.GetStringValue()
	}
	return ""
}

// ListRecipes is the gRPC handler for listing the caller's recipes.
func (s *recipeQueryServer) ListRecipes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}

	var filter repositories.RecipeFilter
	if filter.TagIDs, err = services.ParseIDList(stringField(req, "tags")); err != nil {
		return nil, toStatus(err)
	}
	if filter.IngredientIDs, err = services.ParseIDList(stringField(req, "ingredients")); err != nil {
		return nil, toStatus(err)
	}

	recipes, err := s.recipeService.List(ctx, user.ID, filter)
	if err != nil {
		return nil, toStatus(err)
	}
	items := make([]interface{}, len(recipes))
	for i := range recipes {
		items[i] = s.recipeToMap(&recipes[i], false)
	}
	return structpb.NewStruct(map[string]interface{}{"recipes": items})
}

// GetRecipe is the gRPC handler for retrieving one of the caller's recipes.
func (s *recipeQueryServer) GetRecipe(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	user, err := requestUser(ctx)
	if err != nil {
		return nil, err
	}
	idValue, ok := req.GetFields()["id"]
	if !ok || idValue.GetNumberValue() < 1 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	recipe, err := s.recipeService.Get(ctx, uint(idValue.GetNumberValue()), user.ID)
	if err != nil {
		return nil, toStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{"recipe": s.recipeToMap(recipe, true)})
}

func listRecipesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecipeQueryServer).ListRecipes(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListRecipesMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecipeQueryServer).ListRecipes(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func getRecipeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RecipeQueryServer).GetRecipe(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetRecipeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RecipeQueryServer).GetRecipe(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var recipeQueryServiceDesc = grpc.ServiceDesc{
	ServiceName: RecipeQueryService,
	HandlerType: (*RecipeQueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRecipes", Handler: listRecipesHandler},
		{MethodName: "GetRecipe", Handler: getRecipeHandler},
	},
	Streams: []grpc.StreamDesc{},
}
