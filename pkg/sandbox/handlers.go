package sandbox

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/opst/trainval/pkg/api/types/annotations"
	"github.com/opst/trainval/pkg/api/types/datasets"
	"github.com/opst/trainval/pkg/api/types/images"
	"github.com/opst/trainval/pkg/api/types/meta"
	"github.com/opst/trainval/pkg/api/types/projects"
	"github.com/opst/trainval/pkg/api/types/tasks"
	"github.com/opst/trainval/pkg/utils/echoutil"
)

// ApiRoot is the path where API methods are served.
const ApiRoot = "/public/api/v3"

const headerApiKey = "x-api-key"

// New creates a server of the sandbox platform.
//
// When token is not empty, requests should have it in the x-api-key header.
func New(store *Store, token string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = echoutil.ErrorHandler(e)
	e.Use(middleware.Recover())
	e.Use(echoutil.LogHandlerFunc)

	api := e.Group(ApiRoot)
	if token != "" {
		api.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:" + headerApiKey,
			Validator: func(key string, _ echo.Context) (bool, error) {
				return key == token, nil
			},
		}))
	}
	Routes(api, store)
	return e
}

// Routes registers API methods of the store.
func Routes(g *echo.Group, s *Store) {
	g.POST("/projects.info", handle(func(req byId) (projects.Info, error) {
		return s.Project(req.Id)
	}))
	g.POST("/projects.add", handle(s.CreateProject))
	g.POST("/projects.meta", handle(func(req byId) (meta.ProjectMeta, error) {
		return s.ProjectMeta(req.Id)
	}))
	g.POST("/projects.meta.update", handle(func(req struct {
		Id   int              `json:"id"`
		Meta meta.ProjectMeta `json:"meta"`
	}) (success, error) {
		return ok(s.UpdateProjectMeta(req.Id, req.Meta))
	}))

	g.POST("/datasets.list", handle(func(req struct {
		ProjectId int  `json:"projectId"`
		Recursive bool `json:"recursive"`
	}) (entities[datasets.Info], error) {
		dss, err := s.ListDatasets(req.ProjectId, req.Recursive)
		return entities[datasets.Info]{Entities: dss}, err
	}))
	g.POST("/datasets.info", handle(func(req byId) (datasets.Info, error) {
		return s.Dataset(req.Id)
	}))
	g.POST("/datasets.add", handle(s.CreateDataset))
	g.POST("/datasets.custom-data.update", handle(func(req struct {
		Id         int            `json:"id"`
		CustomData map[string]any `json:"customData"`
	}) (success, error) {
		return ok(s.UpdateDatasetCustomData(req.Id, req.CustomData))
	}))

	g.POST("/images.list", handle(func(req struct {
		DatasetId int `json:"datasetId"`
		Page      int `json:"page"`
		PerPage   int `json:"perPage"`
	}) (images.Page[images.Info], error) {
		return s.ListImages(req.DatasetId, req.Page, req.PerPage)
	}))
	g.POST("/images.copy", handle(func(req struct {
		DestDatasetId   int   `json:"destDatasetId"`
		Ids             []int `json:"ids"`
		WithAnnotations bool  `json:"withAnnotations"`
	}) ([]images.Info, error) {
		return s.CopyImages(req.DestDatasetId, req.Ids, req.WithAnnotations)
	}))
	g.POST("/images.bulk.add-by-id", handle(func(req struct {
		DatasetId int `json:"datasetId"`
		Images    []struct {
			Name string `json:"name"`
			Id   int    `json:"id"`
		} `json:"images"`
	}) ([]images.Info, error) {
		names := make([]string, len(req.Images))
		ids := make([]int, len(req.Images))
		for nth, img := range req.Images {
			names[nth] = img.Name
			ids[nth] = img.Id
		}
		return s.AddImagesById(req.DatasetId, names, ids)
	}))

	g.POST("/annotations.bulk.info", handle(func(req struct {
		DatasetId int   `json:"datasetId"`
		ImageIds  []int `json:"imageIds"`
	}) ([]annotations.Info, error) {
		return s.Annotations(req.DatasetId, req.ImageIds)
	}))
	g.POST("/annotations.bulk.add", handle(func(req struct {
		Annotations []struct {
			ImageId    int                    `json:"imageId"`
			Annotation annotations.Annotation `json:"annotation"`
		} `json:"annotations"`
	}) (success, error) {
		ids := make([]int, len(req.Annotations))
		anns := make([]annotations.Annotation, len(req.Annotations))
		for nth, a := range req.Annotations {
			ids[nth] = a.ImageId
			anns[nth] = a.Annotation
		}
		return ok(s.SetAnnotations(ids, anns))
	}))

	g.POST("/tasks.data.set", handle(func(req struct {
		TaskId int           `json:"taskId"`
		Fields []tasks.Field `json:"fields"`
	}) (success, error) {
		return ok(s.SetTaskFields(req.TaskId, req.Fields))
	}))
	g.POST("/tasks.output.set", handle(func(req struct {
		TaskId      int    `json:"taskId"`
		ProjectId   int    `json:"projectId"`
		ProjectName string `json:"projectName"`
	}) (success, error) {
		return ok(s.SetTaskOutputProject(req.TaskId, req.ProjectId, req.ProjectName))
	}))
	g.POST("/workflow.input.add", handle(func(req workflowItem) (success, error) {
		return ok(s.AddWorkflowInput(req.TaskId, req.Id))
	}))
	g.POST("/workflow.output.add", handle(func(req workflowItem) (success, error) {
		return ok(s.AddWorkflowOutput(req.TaskId, req.Id))
	}))
}

type byId struct {
	Id int `json:"id"`
}

type entities[T any] struct {
	Entities []T `json:"entities"`
}

type success struct {
	Success bool `json:"success"`
}

func ok(err error) (success, error) {
	return success{Success: err == nil}, err
}

type workflowItem struct {
	TaskId int    `json:"taskId"`
	Type   string `json:"type"`
	Id     int    `json:"id"`
}

// handle makes a handler which binds the request body into Req, and responds the result of fn as JSON.
func handle[Req any, Res any](fn func(Req) (Res, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := new(Req)
		if err := c.Bind(req); err != nil {
			return echoutil.BadRequest("request body should be a json object of the method", err)
		}

		res, err := fn(*req)
		if err != nil {
			return asHTTPError(err)
		}
		return c.JSON(http.StatusOK, res)
	}
}

func asHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, ErrNotFound):
		return echoutil.NewErrorMessage(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		return echoutil.Conflict(err.Error())
	case errors.Is(err, ErrInvalid):
		return echoutil.BadRequest(err.Error(), err)
	default:
		return echoutil.InternalServerError(err)
	}
}
