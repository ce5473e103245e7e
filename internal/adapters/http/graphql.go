package http

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"github.com/samirrijal/skywatch/internal/core/domain"
	"github.com/samirrijal/skywatch/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services. Object
// fields resolve through the domain types' json tags.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	trackPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "TrackPoint",
		Fields: graphql.Fields{
			"time":     &graphql.Field{Type: graphql.DateTime},
			"altitude": &graphql.Field{Type: graphql.Float},
			"azimuth":  &graphql.Field{Type: graphql.Float},
			"visible":  &graphql.Field{Type: graphql.Boolean},
		},
	})

	bodyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Body",
		Fields: graphql.Fields{
			"name":            &graphql.Field{Type: graphql.String},
			"type":            &graphql.Field{Type: graphql.String},
			"altitudeDeg":     &graphql.Field{Type: graphql.Float},
			"azimuthDeg":      &graphql.Field{Type: graphql.Float},
			"direction":       &graphql.Field{Type: graphql.String},
			"visible":         &graphql.Field{Type: graphql.Boolean},
			"riseISO":         &graphql.Field{Type: graphql.String},
			"setISO":          &graphql.Field{Type: graphql.String},
			"riseLocal":       &graphql.Field{Type: graphql.String},
			"setLocal":        &graphql.Field{Type: graphql.String},
			"phaseDeg":        &graphql.Field{Type: graphql.Float},
			"phaseName":       &graphql.Field{Type: graphql.String},
			"illumination":    &graphql.Field{Type: graphql.Float},
			"track":           &graphql.Field{Type: graphql.NewList(trackPointType)},
			"bestViewingTime": &graphql.Field{Type: graphql.DateTime},
		},
	})

	snapshotRequestType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SnapshotRequest",
		Fields: graphql.Fields{
			"lat":      &graphql.Field{Type: graphql.Float},
			"lon":      &graphql.Field{Type: graphql.Float},
			"iso":      &graphql.Field{Type: graphql.String},
			"timezone": &graphql.Field{Type: graphql.String},
		},
	})

	snapshotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CelestialSnapshot",
		Fields: graphql.Fields{
			"request":     &graphql.Field{Type: snapshotRequestType},
			"bodies":      &graphql.Field{Type: graphql.NewList(bodyType)},
			"source":      &graphql.Field{Type: graphql.String},
			"generatedAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	placeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Place",
		Fields: graphql.Fields{
			"displayName": &graphql.Field{Type: graphql.String},
			"point":       &graphql.Field{Type: geoPointType},
			"featureType": &graphql.Field{Type: graphql.String},
			"city":        &graphql.Field{Type: graphql.String},
			"state":       &graphql.Field{Type: graphql.String},
			"country":     &graphql.Field{Type: graphql.String},
			"countryCode": &graphql.Field{Type: graphql.String},
			"postcode":    &graphql.Field{Type: graphql.String},
			"provider":    &graphql.Field{Type: graphql.String},
			"degraded":    &graphql.Field{Type: graphql.Boolean},
		},
	})

	currentType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CurrentConditions",
		Fields: graphql.Fields{
			"time":          &graphql.Field{Type: graphql.String},
			"temperatureC":  &graphql.Field{Type: graphql.Float},
			"humidityPct":   &graphql.Field{Type: graphql.Float},
			"cloudCoverPct": &graphql.Field{Type: graphql.Float},
			"visibilityM":   &graphql.Field{Type: graphql.Float},
			"windSpeedKmh":  &graphql.Field{Type: graphql.Float},
			"weatherCode":   &graphql.Field{Type: graphql.Int},
			"condition":     &graphql.Field{Type: graphql.String},
		},
	})

	hourlyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "HourlyForecast",
		Fields: graphql.Fields{
			"time":                     &graphql.Field{Type: graphql.String},
			"temperatureC":             &graphql.Field{Type: graphql.Float},
			"cloudCoverPct":            &graphql.Field{Type: graphql.Float},
			"precipitationProbability": &graphql.Field{Type: graphql.Float},
			"visibilityM":              &graphql.Field{Type: graphql.Float},
			"weatherCode":              &graphql.Field{Type: graphql.Int},
		},
	})

	dailyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DailyForecast",
		Fields: graphql.Fields{
			"date":            &graphql.Field{Type: graphql.String},
			"tempMaxC":        &graphql.Field{Type: graphql.Float},
			"tempMinC":        &graphql.Field{Type: graphql.Float},
			"precipitationMm": &graphql.Field{Type: graphql.Float},
		},
	})

	weatherType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Weather",
		Fields: graphql.Fields{
			"point":     &graphql.Field{Type: geoPointType},
			"provider":  &graphql.Field{Type: graphql.String},
			"current":   &graphql.Field{Type: currentType},
			"hourly":    &graphql.Field{Type: graphql.NewList(hourlyType)},
			"daily":     &graphql.Field{Type: graphql.NewList(dailyType)},
			"seeing":    &graphql.Field{Type: graphql.String},
			"fetchedAt": &graphql.Field{Type: graphql.DateTime},
		},
	})

	pointArgs := func() graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{
			"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		}
	}

	celestialArgs := pointArgs()
	celestialArgs["iso"] = &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""}
	celestialArgs["tz"] = &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""}
	celestialArgs["hours"] = &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0}

	weatherArgs := pointArgs()
	weatherArgs["days"] = &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"celestial": &graphql.Field{
				Type:        snapshotType,
				Description: "Sky snapshot for a place and instant",
				Args:        celestialArgs,
				Resolve: resolveWithCode(func(p graphql.ResolveParams) (interface{}, error) {
					point, err := domain.NewGeoPoint(p.Args["lat"].(float64), p.Args["lon"].(float64))
					if err != nil {
						return nil, err
					}
					req, err := domain.ParseObservation(
						formatFloat(point.Lat), formatFloat(point.Lon),
						p.Args["iso"].(string), p.Args["tz"].(string), deps.clock().Now())
					if err != nil {
						return nil, err
					}
					snap, _, err := deps.Sky.Snapshot(p.Context, req, usecases.SnapshotOptions{Hours: p.Args["hours"].(int)})
					return snap, err
				}),
			},
			"weather": &graphql.Field{
				Type:        weatherType,
				Description: "Current, hourly and optional daily weather",
				Args:        weatherArgs,
				Resolve: resolveWithCode(func(p graphql.ResolveParams) (interface{}, error) {
					if err := checkAPIKey(deps.APIKey, apiKeyFrom(p.Context)); err != nil {
						return nil, err
					}
					point, err := domain.NewGeoPoint(p.Args["lat"].(float64), p.Args["lon"].(float64))
					if err != nil {
						return nil, err
					}
					wx, _, err := deps.Weather.Forecast(p.Context, point, p.Args["days"].(int))
					return wx, err
				}),
			},
			"searchLocations": &graphql.Field{
				Type:        graphql.NewList(placeType),
				Description: "Forward geocoding with postal and city-only handling",
				Args: graphql.FieldConfigArgument{
					"q":          &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: usecases.DefaultSearchLimit},
					"citiesOnly": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: resolveWithCode(func(p graphql.ResolveParams) (interface{}, error) {
					res, err := deps.Places.Search(p.Context, p.Args["q"].(string), usecases.SearchOptions{
						Limit:      p.Args["limit"].(int),
						CitiesOnly: p.Args["citiesOnly"].(bool),
					})
					if domain.IsKind(err, domain.KindNotFound) {
						return []domain.Place{}, nil
					}
					return res.Places, err
				}),
			},
			"reverseLocation": &graphql.Field{
				Type:        placeType,
				Description: "Reverse geocoding of a coordinate",
				Args:        pointArgs(),
				Resolve: resolveWithCode(func(p graphql.ResolveParams) (interface{}, error) {
					point, err := domain.NewGeoPoint(p.Args["lat"].(float64), p.Args["lon"].(float64))
					if err != nil {
						return nil, err
					}
					return deps.Places.Reverse(p.Context, point)
				}),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// MaxGraphQLFields caps the top-level fields of one operation. Each field
// is charged against the graphql rate-limit group.
const MaxGraphQLFields = 20

// codedError exposes the domain kind as extensions.code in the GraphQL
// error list.
type codedError struct {
	err error
}

func (e *codedError) Error() string { return e.err.Error() }

func (e *codedError) Unwrap() error { return e.err }

func (e *codedError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": domain.KindOf(e.err).String()}
}

func resolveWithCode(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		v, err := fn(p)
		if err != nil {
			return nil, &codedError{err: err}
		}
		return v, nil
	}
}

// topLevelFields counts the root selections of the operation that will run,
// following fragments. Aliases count once each. Without an operation name
// every operation in the document is counted.
func topLevelFields(doc *ast.Document, operation string) int {
	fragments := map[string]*ast.FragmentDefinition{}
	for _, def := range doc.Definitions {
		if f, ok := def.(*ast.FragmentDefinition); ok && f.Name != nil {
			fragments[f.Name.Value] = f
		}
	}

	var count func(set *ast.SelectionSet, seen map[string]bool) int
	count = func(set *ast.SelectionSet, seen map[string]bool) int {
		if set == nil {
			return 0
		}
		n := 0
		for _, sel := range set.Selections {
			switch s := sel.(type) {
			case *ast.Field:
				n++
			case *ast.InlineFragment:
				n += count(s.SelectionSet, seen)
			case *ast.FragmentSpread:
				if s.Name == nil || seen[s.Name.Value] {
					continue
				}
				if f, ok := fragments[s.Name.Value]; ok {
					seen[s.Name.Value] = true
					n += count(f.SelectionSet, seen)
				}
			}
		}
		return n
	}

	total := 0
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operation != "" && (op.Name == nil || op.Name.Value != operation) {
			continue
		}
		total += count(op.SelectionSet, map[string]bool{})
	}
	return total
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		// unparsable documents cost one unit and fail inside Do
		cost := 1
		if doc, err := parser.Parse(parser.ParseParams{Source: req.Query}); err == nil {
			cost = topLevelFields(doc, req.OperationName)
		}
		if cost > MaxGraphQLFields {
			return errBadRequest(c, fmt.Sprintf("query selects %d top-level fields, at most %d allowed", cost, MaxGraphQLFields))
		}
		if ok, err := admit(c, deps.Limiter, "graphql", cost); !ok {
			return err
		}

		start := time.Now()
		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        withAPIKey(c.UserContext(), presentedKey(c)),
		})
		if result.HasErrors() {
			LoggerFromCtx(c.UserContext()).Info("graphql errors",
				"count", len(result.Errors), "first", result.Errors[0].Message, "latency", time.Since(start).String())
		}

		return c.JSON(result)
	}
}
